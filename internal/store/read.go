package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/roach88/skelc/internal/ir"
)

// ErrRunNotFound is returned when no stored run matches a reference.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when a run id prefix matches several runs.
var ErrAmbiguousRun = errors.New("ambiguous run reference")

// Run summarizes one stored manifest.
type Run struct {
	ID              string
	Seq             int64
	Unit            string
	RegistryVersion string
	Backends        []string
	Instances       int
}

const runColumns = `
	r.id, r.seq, r.unit, r.registry_version, r.backends,
	(SELECT COUNT(*) FROM instances i WHERE i.run_id = r.id)
`

// ListRuns returns every stored run ordered by seq.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindRun resolves a run reference: a decimal seq number, a full run id
// or a unique id prefix.
func (s *Store) FindRun(ctx context.Context, ref string) (Run, error) {
	if seq, err := strconv.ParseInt(ref, 10, 64); err == nil {
		row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.seq = ?`, seq)
		run, err := scanRun(row)
		if errors.Is(err, sql.ErrNoRows) {
			// A numeric id prefix is still a valid reference.
			return s.findByPrefix(ctx, ref)
		}
		return run, err
	}
	return s.findByPrefix(ctx, ref)
}

func (s *Store) findByPrefix(ctx context.Context, prefix string) (Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs r
		WHERE substr(r.id, 1, length(?)) = ?
		ORDER BY r.seq ASC
		LIMIT 2
	`, prefix, prefix)
	if err != nil {
		return Run{}, fmt.Errorf("query run %s: %w", prefix, err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var backends string
	if err := row.Scan(&run.ID, &run.Seq, &run.Unit, &run.RegistryVersion, &backends, &run.Instances); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.Backends, err = unmarshalStrings(backends); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadManifest rebuilds the manifest stored under id. Registries come
// back in registration order and instances in seq order.
func (s *Store) ReadManifest(ctx context.Context, id string) (*ir.Manifest, error) {
	m := &ir.Manifest{
		Instances: []ir.Instance{},
		Functions: []ir.UserFunction{},
		Types:     []ir.UserType{},
		Constants: []ir.UserConstant{},
	}

	var backends string
	var blas *string
	err := s.db.QueryRowContext(ctx, `
		SELECT unit, manifest_version, registry_version, backends, blas_range
		FROM runs WHERE id = ?
	`, id).Scan(&m.Unit, &m.Version, &m.RegistryVersion, &backends, &blas)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if m.Backends, err = unmarshalStrings(backends); err != nil {
		return nil, err
	}
	if m.BlasRange, err = unmarshalRange(blas); err != nil {
		return nil, err
	}

	if m.Instances, err = s.readInstances(ctx, id); err != nil {
		return nil, err
	}
	if m.Functions, err = s.readFunctions(ctx, id); err != nil {
		return nil, err
	}
	if m.Types, err = s.readTypes(ctx, id); err != nil {
		return nil, err
	}
	if m.Constants, err = s.readConstants(ctx, id); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) readInstances(ctx context.Context, runID string) ([]ir.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, kind, arity, callbacks, types, constants, file, line, col
		FROM instances WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	out := []ir.Instance{}
	for rows.Next() {
		var inst ir.Instance
		var kind, arity, callbacks, types, constants string
		if err := rows.Scan(&inst.Seq, &inst.Name, &kind, &arity, &callbacks, &types, &constants,
			&inst.Pos.File, &inst.Pos.Line, &inst.Pos.Col); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		inst.Kind = ir.Kind(kind)
		if inst.Arity, err = unmarshalInts(arity); err != nil {
			return nil, err
		}
		inst.Callbacks = []ir.Binding{}
		if err := json.Unmarshal([]byte(callbacks), &inst.Callbacks); err != nil {
			return nil, fmt.Errorf("unmarshal callbacks: %w", err)
		}
		if inst.Types, err = unmarshalIDs(types); err != nil {
			return nil, err
		}
		if inst.Constants, err = unmarshalIDs(constants); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return out, nil
}

func (s *Store) readFunctions(ctx context.Context, runID string) ([]ir.UserFunction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, qualified, origin, signature, types, constants, file, line, col
		FROM user_functions WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer rows.Close()

	out := []ir.UserFunction{}
	for rows.Next() {
		var f ir.UserFunction
		var id, origin, sig, types, constants string
		if err := rows.Scan(&id, &f.Name, &f.Qualified, &origin, &sig, &types, &constants,
			&f.Pos.File, &f.Pos.Line, &f.Pos.Col); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		f.ID = ir.DeclID(id)
		f.Origin = ir.Origin(origin)
		if f.Signature, err = unmarshalSignature(sig); err != nil {
			return nil, err
		}
		if f.Types, err = unmarshalIDs(types); err != nil {
			return nil, err
		}
		if f.Constants, err = unmarshalIDs(constants); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	rows.Close()

	for i := range out {
		if out[i].Bindings, err = s.ReadBindings(ctx, runID, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadBindings returns the bindings of one function in the order they
// were recorded.
func (s *Store) ReadBindings(ctx context.Context, runID string, function ir.DeclID) ([]ir.Binding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance, name, position, role, slot, pair
		FROM bindings WHERE run_id = ? AND function_id = ?
		ORDER BY ord ASC
	`, runID, string(function))
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	out := []ir.Binding{}
	for rows.Next() {
		b := ir.Binding{Function: function}
		var pair *string
		if err := rows.Scan(&b.Instance, &b.Name, &b.Position, &b.Role, &b.Slot, &pair); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		if pair != nil {
			if b.Pair, err = unmarshalInts(*pair); err != nil {
				return nil, err
			}
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return out, nil
}

// FunctionsOf returns the ids of the functions bound to instances named
// instance, ordered by callback position.
func (s *Store) FunctionsOf(ctx context.Context, runID, instance string) ([]ir.DeclID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT function_id FROM bindings
		WHERE run_id = ? AND instance = ?
		ORDER BY position ASC, function_id COLLATE BINARY ASC
	`, runID, instance)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	ids := []ir.DeclID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		ids = append(ids, ir.DeclID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return ids, nil
}

func (s *Store) readTypes(ctx context.Context, runID string) ([]ir.UserType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, qualified, fields, file, line, col
		FROM user_types WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	out := []ir.UserType{}
	for rows.Next() {
		var t ir.UserType
		var id, fields string
		if err := rows.Scan(&id, &t.Name, &t.Qualified, &fields, &t.Pos.File, &t.Pos.Line, &t.Pos.Col); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		t.ID = ir.DeclID(id)
		if t.Fields, err = unmarshalFields(fields); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate types: %w", err)
	}
	return out, nil
}

func (s *Store) readConstants(ctx context.Context, runID string) ([]ir.UserConstant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, value, constexpr, defined, valid, file, line, col
		FROM user_constants WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query constants: %w", err)
	}
	defer rows.Close()

	out := []ir.UserConstant{}
	for rows.Next() {
		var c ir.UserConstant
		var id string
		if err := rows.Scan(&id, &c.Name, &c.Type, &c.Value, &c.Constexpr, &c.Defined, &c.Valid,
			&c.Pos.File, &c.Pos.Line, &c.Pos.Col); err != nil {
			return nil, fmt.Errorf("scan constant: %w", err)
		}
		c.ID = ir.DeclID(id)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate constants: %w", err)
	}
	return out, nil
}
