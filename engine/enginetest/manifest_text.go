package enginetest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"xdao.co/txkit/engine"
	"xdao.co/txkit/model"
)

// ParseManifest parses the subset of manifest text the simulator understands:
//
//	CALL_METHOD ComponentAddress("...") "method" <args>;
//	SET_METADATA ComponentAddress("...") "key" "value";
//	CLAIM_COMPONENT_ROYALTY ComponentAddress("...");
//	TAKE_FROM_WORKTOP ResourceAddress("...") Bucket("...");
//	RETURN_TO_WORKTOP Bucket("...");
//	CLEAR_AUTH_ZONE;
//	DROP_ALL_PROOFS;
//
// Arguments may be string literals, booleans, NNNu8/u32/u64 integers or
// Kind("text") values for Decimal, addresses, Bucket, Proof and Expression.
func ParseManifest(text string) (model.ParsedInstructions, error) {
	var out model.ParsedInstructions
	for n, stmt := range strings.Split(text, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		toks, err := tokenize(stmt)
		if err != nil {
			return nil, parseError("statement %d: %v", n+1, err)
		}
		ins, err := parseStatement(toks)
		if err != nil {
			return nil, parseError("statement %d: %v", n+1, err)
		}
		out = append(out, ins)
	}
	return out, nil
}

type token struct {
	word   string
	str    string
	quoted bool
}

func tokenize(stmt string) ([]token, error) {
	var toks []token
	r := []rune(stmt)
	for i := 0; i < len(r); {
		switch {
		case unicode.IsSpace(r[i]):
			i++
		case r[i] == '"':
			s, next, err := readQuoted(r, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{str: s, quoted: true})
			i = next
		case unicode.IsLetter(r[i]) || unicode.IsDigit(r[i]) || r[i] == '_':
			j := i
			for j < len(r) && (unicode.IsLetter(r[j]) || unicode.IsDigit(r[j]) || r[j] == '_') {
				j++
			}
			word := string(r[i:j])
			if j < len(r) && r[j] == '(' {
				if j+1 >= len(r) || r[j+1] != '"' {
					return nil, fmt.Errorf("%s( must take a string literal", word)
				}
				s, next, err := readQuoted(r, j+1)
				if err != nil {
					return nil, err
				}
				if next >= len(r) || r[next] != ')' {
					return nil, fmt.Errorf("%s(...) is not closed", word)
				}
				toks = append(toks, token{word: word, str: s})
				i = next + 1
				continue
			}
			toks = append(toks, token{word: word})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q", r[i])
		}
	}
	return toks, nil
}

func readQuoted(r []rune, start int) (string, int, error) {
	for j := start + 1; j < len(r); j++ {
		if r[j] == '\\' {
			j++
			continue
		}
		if r[j] == '"' {
			s, err := strconv.Unquote(string(r[start : j+1]))
			return s, j + 1, err
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func tokenValue(t token) (model.Value, error) {
	if t.quoted {
		return model.String(t.str), nil
	}
	switch t.word {
	case "true":
		return model.Bool(true), nil
	case "false":
		return model.Bool(false), nil
	case "Decimal":
		return model.Decimal(t.str), nil
	case "ComponentAddress":
		return model.ComponentAddress{Address: t.str}, nil
	case "ResourceAddress":
		return model.ResourceAddress{Address: t.str}, nil
	case "PackageAddress":
		return model.PackageAddress{Address: t.str}, nil
	case "Bucket":
		return model.Bucket{Identifier: model.String(t.str)}, nil
	case "Proof":
		return model.Proof{Identifier: model.String(t.str)}, nil
	case "Expression":
		return model.Expression(t.str), nil
	}
	for suffix, bits := range map[string]int{"u8": 8, "u32": 32, "u64": 64} {
		digits, ok := strings.CutSuffix(t.word, suffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(digits, 10, bits)
		if err != nil {
			return nil, err
		}
		switch bits {
		case 8:
			return model.U8(v), nil
		case 32:
			return model.U32(v), nil
		default:
			return model.U64(v), nil
		}
	}
	return nil, fmt.Errorf("unsupported value %q", t.word)
}

func valueAs[T model.Value](t token) (T, error) {
	var zero T
	v, err := tokenValue(t)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("got %s, want %T", v.Kind(), zero)
	}
	return typed, nil
}

func parseStatement(toks []token) (model.Instruction, error) {
	if len(toks) == 0 || toks[0].word == "" {
		return nil, fmt.Errorf("missing instruction name")
	}
	name, args := model.InstructionKind(toks[0].word), toks[1:]
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d arguments, got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case model.InstructionCallMethod:
		if len(args) < 2 {
			return nil, fmt.Errorf("%s needs a component address and a method name", name)
		}
		addr, err := valueAs[model.ComponentAddress](args[0])
		if err != nil {
			return nil, err
		}
		method, err := valueAs[model.String](args[1])
		if err != nil {
			return nil, err
		}
		var rest model.Values
		for _, a := range args[2:] {
			v, err := tokenValue(a)
			if err != nil {
				return nil, err
			}
			rest = append(rest, v)
		}
		return model.CallMethod{ComponentAddress: addr, MethodName: method, Arguments: rest}, nil
	case model.InstructionSetMetadata:
		if err := arity(3); err != nil {
			return nil, err
		}
		entity, err := tokenValue(args[0])
		if err != nil {
			return nil, err
		}
		key, err := valueAs[model.String](args[1])
		if err != nil {
			return nil, err
		}
		value, err := valueAs[model.String](args[2])
		if err != nil {
			return nil, err
		}
		return model.SetMetadata{EntityAddress: model.AnyValue{Value: entity}, Key: key, Value: value}, nil
	case model.InstructionClaimComponentRoyalty:
		if err := arity(1); err != nil {
			return nil, err
		}
		addr, err := valueAs[model.ComponentAddress](args[0])
		if err != nil {
			return nil, err
		}
		return model.ClaimComponentRoyalty{ComponentAddress: addr}, nil
	case model.InstructionTakeFromWorktop:
		if err := arity(2); err != nil {
			return nil, err
		}
		res, err := valueAs[model.ResourceAddress](args[0])
		if err != nil {
			return nil, err
		}
		bucket, err := valueAs[model.Bucket](args[1])
		if err != nil {
			return nil, err
		}
		return model.TakeFromWorktop{ResourceAddress: res, IntoBucket: bucket}, nil
	case model.InstructionReturnToWorktop:
		if err := arity(1); err != nil {
			return nil, err
		}
		bucket, err := valueAs[model.Bucket](args[0])
		if err != nil {
			return nil, err
		}
		return model.ReturnToWorktop{Bucket: bucket}, nil
	case model.InstructionClearAuthZone:
		return model.ClearAuthZone{}, arity(0)
	case model.InstructionDropAllProofs:
		return model.DropAllProofs{}, arity(0)
	}
	return nil, fmt.Errorf("unsupported instruction %s", name)
}

// RenderManifest is the inverse of ParseManifest.
func RenderManifest(ins model.ParsedInstructions) (string, error) {
	var b strings.Builder
	for i, in := range ins {
		var parts []model.Value
		switch v := in.(type) {
		case model.CallMethod:
			parts = append([]model.Value{v.ComponentAddress, v.MethodName}, v.Arguments...)
		case model.SetMetadata:
			parts = []model.Value{v.EntityAddress.Value, v.Key, v.Value}
		case model.ClaimComponentRoyalty:
			parts = []model.Value{v.ComponentAddress}
		case model.TakeFromWorktop:
			parts = []model.Value{v.ResourceAddress, v.IntoBucket}
		case model.ReturnToWorktop:
			parts = []model.Value{v.Bucket}
		case model.ClearAuthZone, model.DropAllProofs:
		default:
			return "", valueError(engine.ErrGeneratorError, "instruction %d: cannot render %s", i, in.InstructionKind())
		}
		b.WriteString(string(in.InstructionKind()))
		for _, p := range parts {
			text, err := renderValue(p)
			if err != nil {
				return "", valueError(engine.ErrGeneratorError, "instruction %d: %v", i, err)
			}
			b.WriteByte(' ')
			b.WriteString(text)
		}
		b.WriteString(";\n")
	}
	return b.String(), nil
}

func renderValue(v model.Value) (string, error) {
	switch x := v.(type) {
	case model.String:
		return strconv.Quote(string(x)), nil
	case model.Bool:
		return strconv.FormatBool(bool(x)), nil
	case model.U8:
		return strconv.FormatUint(uint64(x), 10) + "u8", nil
	case model.U32:
		return strconv.FormatUint(uint64(x), 10) + "u32", nil
	case model.U64:
		return strconv.FormatUint(uint64(x), 10) + "u64", nil
	case model.Decimal:
		return "Decimal(" + strconv.Quote(string(x)) + ")", nil
	case model.Expression:
		return "Expression(" + strconv.Quote(string(x)) + ")", nil
	case model.ComponentAddress:
		return "ComponentAddress(" + strconv.Quote(x.Address) + ")", nil
	case model.ResourceAddress:
		return "ResourceAddress(" + strconv.Quote(x.Address) + ")", nil
	case model.PackageAddress:
		return "PackageAddress(" + strconv.Quote(x.Address) + ")", nil
	case model.Bucket:
		if s, ok := x.Identifier.(model.String); ok {
			return "Bucket(" + strconv.Quote(string(s)) + ")", nil
		}
	case model.Proof:
		if s, ok := x.Identifier.(model.String); ok {
			return "Proof(" + strconv.Quote(string(s)) + ")", nil
		}
	}
	return "", fmt.Errorf("cannot render %s", v.Kind())
}
