package model

import (
	"encoding/json"
	"fmt"
)

// InstructionsKind selects the representation of manifest instructions.
type InstructionsKind string

const (
	InstructionsString InstructionsKind = "String"
	InstructionsParsed InstructionsKind = "Parsed"
)

// Instructions is either StringInstructions or ParsedInstructions.
type Instructions interface {
	InstructionsKind() InstructionsKind
}

// StringInstructions is manifest source text.
type StringInstructions string

// ParsedInstructions is a structured instruction list.
type ParsedInstructions []Instruction

func (StringInstructions) InstructionsKind() InstructionsKind { return InstructionsString }
func (ParsedInstructions) InstructionsKind() InstructionsKind { return InstructionsParsed }

func (s StringInstructions) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(InstructionsString), scalar[string]{Value: string(s)})
}

func (s *StringInstructions) UnmarshalJSON(data []byte) error {
	var p scalar[string]
	if err := decodeTagged(data, valueKey, string(InstructionsString), &p); err != nil {
		return err
	}
	*s = StringInstructions(p.Value)
	return nil
}

func (p ParsedInstructions) MarshalJSON() ([]byte, error) {
	list := make([]json.RawMessage, 0, len(p))
	for _, ins := range p {
		b, err := EncodeInstruction(ins)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return encodeTagged(valueKey, string(InstructionsParsed), scalar[[]json.RawMessage]{Value: list})
}

func (p *ParsedInstructions) UnmarshalJSON(data []byte) error {
	var raw scalar[[]json.RawMessage]
	if err := decodeTagged(data, valueKey, string(InstructionsParsed), &raw); err != nil {
		return err
	}
	out := make(ParsedInstructions, 0, len(raw.Value))
	for i, b := range raw.Value {
		ins, err := DecodeInstruction(b)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, ins)
	}
	*p = out
	return nil
}

// DecodeInstructions reads the "type" discriminator and decodes either
// representation.
func DecodeInstructions(data []byte) (Instructions, error) {
	tag, err := readTag(data, valueKey)
	if err != nil {
		return nil, fmt.Errorf("instructions: %w", err)
	}
	switch InstructionsKind(tag) {
	case InstructionsString:
		var s StringInstructions
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("instructions: %w", err)
		}
		return s, nil
	case InstructionsParsed:
		var p ParsedInstructions
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("instructions: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("instructions: unknown type %q", tag)
}

// Manifest is an ordered instruction list plus the blobs it references.
type Manifest struct {
	Instructions Instructions
	Blobs        []HexBytes
}

type manifestWire struct {
	Instructions json.RawMessage `json:"instructions"`
	Blobs        []HexBytes      `json:"blobs"`
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	if m.Instructions == nil {
		return nil, fmt.Errorf("manifest: nil instructions")
	}
	ins, err := json.Marshal(m.Instructions)
	if err != nil {
		return nil, err
	}
	blobs := m.Blobs
	if blobs == nil {
		blobs = []HexBytes{}
	}
	return json.Marshal(manifestWire{Instructions: ins, Blobs: blobs})
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	var w manifestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if len(w.Instructions) == 0 {
		return fmt.Errorf("manifest: missing instructions")
	}
	ins, err := DecodeInstructions(w.Instructions)
	if err != nil {
		return err
	}
	m.Instructions = ins
	m.Blobs = w.Blobs
	return nil
}
