package utils

import "golang.org/x/crypto/bcrypt"

const DefaultPasswordCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultPasswordCost)
}

func HashPasswordCost(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
