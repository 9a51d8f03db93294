package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/skelc/internal/ir"
)

// WriteManifest stores m under its fingerprint. Writing a manifest that
// is already stored is a no-op reported as inserted=false; the run id is
// returned either way.
func (s *Store) WriteManifest(ctx context.Context, m *ir.Manifest) (id string, inserted bool, err error) {
	id, err = ir.Fingerprint(m)
	if err != nil {
		return "", false, fmt.Errorf("write manifest: %w", err)
	}

	backends, err := marshalStrings(m.Backends)
	if err != nil {
		return "", false, fmt.Errorf("write manifest: %w", err)
	}
	blas, err := marshalRange(m.BlasRange)
	if err != nil {
		return "", false, fmt.Errorf("write manifest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("write manifest: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, unit, manifest_version, registry_version, backends, blas_range)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, m.Unit, m.Version, m.RegistryVersion, backends, blas)
	if err != nil {
		return "", false, fmt.Errorf("write manifest: insert run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write manifest: rows affected: %w", err)
	}
	if n == 0 {
		return id, false, tx.Commit()
	}

	for _, inst := range m.Instances {
		if err := writeInstance(ctx, tx, id, inst); err != nil {
			return "", false, fmt.Errorf("write manifest: %w", err)
		}
	}
	for i, f := range m.Functions {
		if err := writeFunction(ctx, tx, id, i, f); err != nil {
			return "", false, fmt.Errorf("write manifest: %w", err)
		}
	}
	for i, t := range m.Types {
		if err := writeType(ctx, tx, id, i, t); err != nil {
			return "", false, fmt.Errorf("write manifest: %w", err)
		}
	}
	for i, c := range m.Constants {
		if err := writeConstant(ctx, tx, id, i, c); err != nil {
			return "", false, fmt.Errorf("write manifest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("write manifest: commit: %w", err)
	}
	return id, true, nil
}

func writeInstance(ctx context.Context, tx *sql.Tx, runID string, inst ir.Instance) error {
	arity, err := marshalInts(inst.Arity)
	if err != nil {
		return err
	}
	callbacks := make(ir.Array, len(inst.Callbacks))
	for i, b := range inst.Callbacks {
		callbacks[i] = b.Object()
	}
	cbs, err := canonical(callbacks)
	if err != nil {
		return fmt.Errorf("marshal callbacks: %w", err)
	}
	types, err := marshalIDs(inst.Types)
	if err != nil {
		return err
	}
	constants, err := marshalIDs(inst.Constants)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instances
		(run_id, seq, name, kind, arity, callbacks, types, constants, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, runID, inst.Seq, inst.Name, string(inst.Kind), arity, cbs, types, constants,
		inst.Pos.File, inst.Pos.Line, inst.Pos.Col)
	if err != nil {
		return fmt.Errorf("insert instance %s: %w", inst.Name, err)
	}
	return nil
}

func writeFunction(ctx context.Context, tx *sql.Tx, runID string, ord int, f ir.UserFunction) error {
	sig, err := marshalSignature(f.Signature)
	if err != nil {
		return err
	}
	types, err := marshalIDs(f.Types)
	if err != nil {
		return err
	}
	constants, err := marshalIDs(f.Constants)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_functions
		(run_id, id, ord, name, qualified, origin, signature, types, constants, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, runID, string(f.ID), ord, f.Name, f.Qualified, string(f.Origin), sig, types, constants,
		f.Pos.File, f.Pos.Line, f.Pos.Col)
	if err != nil {
		return fmt.Errorf("insert function %s: %w", f.Name, err)
	}

	for j, b := range f.Bindings {
		var pair any
		if len(b.Pair) > 0 {
			if pair, err = marshalInts(b.Pair); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bindings
			(run_id, function_id, ord, instance, name, position, role, slot, pair)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, runID, string(f.ID), j, b.Instance, b.Name, b.Position, b.Role, b.Slot, pair)
		if err != nil {
			return fmt.Errorf("insert binding %s/%d: %w", f.Name, j, err)
		}
	}
	return nil
}

func writeType(ctx context.Context, tx *sql.Tx, runID string, ord int, t ir.UserType) error {
	fields, err := marshalFields(t.Fields)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_types
		(run_id, id, ord, name, qualified, fields, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, runID, string(t.ID), ord, t.Name, t.Qualified, fields, t.Pos.File, t.Pos.Line, t.Pos.Col)
	if err != nil {
		return fmt.Errorf("insert type %s: %w", t.Name, err)
	}
	return nil
}

func writeConstant(ctx context.Context, tx *sql.Tx, runID string, ord int, c ir.UserConstant) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_constants
		(run_id, id, ord, name, type, value, constexpr, defined, valid, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, runID, string(c.ID), ord, c.Name, c.Type, c.Value,
		boolInt(c.Constexpr), boolInt(c.Defined), boolInt(c.Valid),
		c.Pos.File, c.Pos.Line, c.Pos.Col)
	if err != nil {
		return fmt.Errorf("insert constant %s: %w", c.Name, err)
	}
	return nil
}
