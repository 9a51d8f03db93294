package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/roach88/skelc/internal/ir"
)

// JSON columns are written as RFC 8785 canonical JSON so identical
// manifests store identical bytes, and read back with go-json.

func canonical(v ir.Value) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalIDs(ids []ir.DeclID) (string, error) {
	s, err := canonical(ir.Strings(ids))
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return s, nil
}

func unmarshalIDs(data string) ([]ir.DeclID, error) {
	ids := []ir.DeclID{}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	return ids, nil
}

func marshalInts(ns []int) (string, error) {
	s, err := canonical(ir.Ints(ns))
	if err != nil {
		return "", fmt.Errorf("marshal ints: %w", err)
	}
	return s, nil
}

func unmarshalInts(data string) ([]int, error) {
	ns := []int{}
	if err := json.Unmarshal([]byte(data), &ns); err != nil {
		return nil, fmt.Errorf("unmarshal ints: %w", err)
	}
	return ns, nil
}

func marshalStrings(ss []string) (string, error) {
	s, err := canonical(ir.Strings(ss))
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return s, nil
}

func unmarshalStrings(data string) ([]string, error) {
	ss := []string{}
	if err := json.Unmarshal([]byte(data), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return ss, nil
}

func marshalSignature(sig ir.Signature) (string, error) {
	params := make(ir.Array, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = ir.Object{"name": ir.String(p.Name), "type": ir.String(p.Type)}
	}
	obj := ir.Object{
		"params": params,
		"result": ir.String(sig.Result),
	}
	if len(sig.TemplateArgs) > 0 {
		obj["template_args"] = ir.Strings(sig.TemplateArgs)
	}
	s, err := canonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	return s, nil
}

func unmarshalSignature(data string) (ir.Signature, error) {
	var sig ir.Signature
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return ir.Signature{}, fmt.Errorf("unmarshal signature: %w", err)
	}
	if sig.Params == nil {
		sig.Params = []ir.Param{}
	}
	return sig, nil
}

func marshalFields(fields []ir.Field) (string, error) {
	arr := make(ir.Array, len(fields))
	for i, f := range fields {
		arr[i] = ir.Object{"name": ir.String(f.Name), "type": ir.String(f.Type)}
	}
	s, err := canonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return s, nil
}

func unmarshalFields(data string) ([]ir.Field, error) {
	fields := []ir.Field{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

func marshalRange(r *ir.SourceRange) (any, error) {
	if r == nil {
		return nil, nil
	}
	s, err := canonical(ir.Object{"begin": r.Begin.Object(), "end": r.End.Object()})
	if err != nil {
		return nil, fmt.Errorf("marshal range: %w", err)
	}
	return s, nil
}

func unmarshalRange(data *string) (*ir.SourceRange, error) {
	if data == nil {
		return nil, nil
	}
	var r ir.SourceRange
	if err := json.Unmarshal([]byte(*data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal range: %w", err)
	}
	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
