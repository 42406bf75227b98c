package game

import "github.com/google/uuid"

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

func (uuidGenerator) Dispose(id string) {}

func NewIdGen() UniqueIdGenerator {
	return uuidGenerator{}
}
