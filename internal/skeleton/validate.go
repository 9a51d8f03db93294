package skeleton

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
	"github.com/Masterminds/semver/v3"
)

// SupportedVersions is the semver constraint a registry table must satisfy.
const SupportedVersions = "^1.0.0"

// Validation error codes (E400-E499)
const (
	ErrVersionInvalid     = "E401" // version is not a semantic version
	ErrVersionUnsupported = "E402" // version outside SupportedVersions
	ErrRoleCount          = "E403" // roles and arity components differ in length
	ErrPairedShape        = "E404" // paired kind without exactly two components
	ErrDuplicateFactory   = "E405" // factory listed under two kinds
	ErrNoKinds            = "E406" // table defines no kinds
	ErrNegativeComponent  = "E407" // negative targ index or fixed count
	ErrDuplicateReserved  = "E408" // reserved type listed twice
)

// ValidationError is one structural problem in a registry table.
type ValidationError struct {
	Field   string
	Message string
	Code    string
	Pos     token.Pos
}

func (e ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d: %s: %s", e.Code, e.Pos.Filename(), e.Pos.Line(), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// TableError collects every validation error of a rejected table.
type TableError struct {
	Errors []ValidationError
}

func (e *TableError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid skeleton registry (%d error(s)): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// validateTable checks the rules the CUE schema cannot express.
// Returns all errors found (does not fail fast).
func validateTable(t *table) []ValidationError {
	var errs []ValidationError

	v, err := semver.NewVersion(t.version)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("%q is not a semantic version: %v", t.version, err),
			Code:    ErrVersionInvalid,
			Pos:     t.versionPos,
		})
	} else {
		c, cerr := semver.NewConstraint(SupportedVersions)
		if cerr != nil {
			panic(cerr)
		}
		if !c.Check(v) {
			errs = append(errs, ValidationError{
				Field:   "version",
				Message: fmt.Sprintf("version %s does not satisfy %s", v, SupportedVersions),
				Code:    ErrVersionUnsupported,
				Pos:     t.versionPos,
			})
		}
	}

	if len(t.kinds) == 0 {
		errs = append(errs, ValidationError{
			Field:   "kinds",
			Message: "at least one skeleton kind is required",
			Code:    ErrNoKinds,
		})
	}

	seenReserved := make(map[string]bool)
	for i, name := range t.reserved {
		if seenReserved[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("reserved_types[%d]", i),
				Message: fmt.Sprintf("duplicate reserved type %q", name),
				Code:    ErrDuplicateReserved,
			})
		}
		seenReserved[name] = true
	}

	factoryOwner := make(map[string]string)
	for _, e := range t.kinds {
		field := "kinds." + e.Template

		if len(e.Roles) != len(e.Arity) {
			errs = append(errs, ValidationError{
				Field:   field + ".roles",
				Message: fmt.Sprintf("%d role(s) for %d arity component(s)", len(e.Roles), len(e.Arity)),
				Code:    ErrRoleCount,
				Pos:     e.pos,
			})
		}

		if e.Paired && len(e.Arity) != 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".arity",
				Message: fmt.Sprintf("paired kind needs exactly 2 arity components, has %d", len(e.Arity)),
				Code:    ErrPairedShape,
				Pos:     e.pos,
			})
		}

		for j, c := range e.Arity {
			if c.TemplateArg < 0 || c.Fixed < 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.arity[%d]", field, j),
					Message: "arity components must not be negative",
					Code:    ErrNegativeComponent,
					Pos:     e.pos,
				})
			}
		}

		for _, f := range e.Factories {
			if owner, ok := factoryOwner[f]; ok {
				errs = append(errs, ValidationError{
					Field:   field + ".factories",
					Message: fmt.Sprintf("factory %q already belongs to %s", f, owner),
					Code:    ErrDuplicateFactory,
					Pos:     e.pos,
				})
				continue
			}
			factoryOwner[f] = e.Template
		}
	}

	return errs
}
