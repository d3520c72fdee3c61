package uuid

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid"
)

// Generator ID generator interface
type Generator interface {
	Generate() (string, error)
}

// NanoIDGenerator ID implementation using NanoID
type NanoIDGenerator struct {
	Length int
}

var _ Generator = &NanoIDGenerator{}

// NewNanoIDGenerator create a new `NanoIDGenerator` instance
func NewNanoIDGenerator(length int) *NanoIDGenerator {
	if length < 1 {
		panic("length must be larger than 1")
	}
	return &NanoIDGenerator{Length: length}
}

// Generate generate a url friendly ID of Length characters
func (ns *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.Nanoid(ns.Length)
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	return id, nil
}
