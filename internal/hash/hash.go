package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

type Hasher struct {
	cost  int
	dummy []byte
}

func New(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches hash. Input past
// MaxPasswordBytes never matches, since bcrypt would ignore the excess.
func (h *Hasher) CheckPassword(hash, password string) bool {
	if len(password) > MaxPasswordBytes {
		h.CheckAbsent(password)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckAbsent burns one comparison against a throwaway hash so an unknown
// username takes as long to reject as a wrong password.
func (h *Hasher) CheckAbsent(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
