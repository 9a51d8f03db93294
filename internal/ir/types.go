package ir

// Kind names a skeleton. The set is closed by the skeleton registry table.
type Kind string

// Skeleton kinds shipped in the default registry.
const (
	KindMap            Kind = "Map"
	KindMapReduce      Kind = "MapReduce"
	KindMapPairs       Kind = "MapPairs"
	KindMapPairsReduce Kind = "MapPairsReduce"
	KindMapOverlap1D   Kind = "MapOverlap1D"
	KindMapOverlap2D   Kind = "MapOverlap2D"
	KindMapOverlap3D   Kind = "MapOverlap3D"
	KindMapOverlap4D   Kind = "MapOverlap4D"
	KindReduce1D       Kind = "Reduce1D"
	KindReduce2D       Kind = "Reduce2D"
	KindScan           Kind = "Scan"
	KindCall           Kind = "Call"
)

// Origin says how a user function was written.
type Origin string

const (
	OriginNamed   Origin = "named"   // function or function template specialization
	OriginClosure Origin = "closure" // capture-less lambda
)

// DeclID is the stable opaque identity of a declaration.
type DeclID string

// NoSlot marks a binding of a paired skeleton, addressed by Pair instead.
const NoSlot = -1

// Position is a source location carried into the output.
type Position struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// SourceRange spans two positions.
type SourceRange struct {
	Begin Position `json:"begin"`
	End   Position `json:"end"`
}

// Binding records that a user function fills one callback slot of an
// instance.
type Binding struct {
	Instance string `json:"instance"`
	Function DeclID `json:"function"`
	Name     string `json:"name"`
	Position int    `json:"position"`       // ordinal of the callback argument
	Role     string `json:"role"`           // e.g. "element", "reduce", "pair"
	Slot     int    `json:"slot"`           // sequential slot, NoSlot when paired
	Pair     []int  `json:"pair,omitempty"` // full arity pair for paired kinds
}

// Instance is one recognized skeleton declaration.
type Instance struct {
	Seq       int       `json:"seq"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Arity     []int     `json:"arity"`
	Callbacks []Binding `json:"callbacks"`
	Types     []DeclID  `json:"types"`
	Constants []DeclID  `json:"constants"`
	Pos       Position  `json:"pos"`
}

// CallbackCount is the number of callback arguments the arity vector
// demands.
func (inst *Instance) CallbackCount() int {
	return SumArity(inst.Arity)
}

// SumArity adds up the components of an arity vector.
func SumArity(arity []int) int {
	n := 0
	for _, a := range arity {
		n += a
	}
	return n
}

// Param is one parameter of a user function signature.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signature is the rendered type signature of a user function.
type Signature struct {
	Params       []Param  `json:"params"`
	Result       string   `json:"result"`
	TemplateArgs []string `json:"template_args,omitempty"`
}

// UserFunction is the canonical descriptor of a callback.
type UserFunction struct {
	ID        DeclID    `json:"id"`
	Name      string    `json:"name"`
	Qualified string    `json:"qualified,omitempty"`
	Origin    Origin    `json:"origin"`
	Signature Signature `json:"signature"`
	Bindings  []Binding `json:"bindings"`
	Types     []DeclID  `json:"types"`
	Constants []DeclID  `json:"constants"`
	Pos       Position  `json:"pos"`
}

// Field is a data member of a user type.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// UserType is a user-defined aggregate reachable from a callback signature.
type UserType struct {
	ID        DeclID   `json:"id"`
	Name      string   `json:"name"`
	Qualified string   `json:"qualified,omitempty"`
	Fields    []Field  `json:"fields"`
	Pos       Position `json:"pos"`
}

// UserConstant is a variable marked for exposure to generated code.
// Invalid constants (not constexpr or not fully defined) are still
// recorded with Valid=false.
type UserConstant struct {
	ID        DeclID   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Value     string   `json:"value,omitempty"` // decimal when the initializer folds to an integer
	Constexpr bool     `json:"constexpr"`
	Defined   bool     `json:"defined"`
	Valid     bool     `json:"valid"`
	Pos       Position `json:"pos"`
}

// Manifest is everything one translation unit hands to code generation.
type Manifest struct {
	Version         string         `json:"version"`
	Unit            string         `json:"unit"`
	RegistryVersion string         `json:"registry_version"`
	Backends        []string       `json:"backends"`
	Instances       []Instance     `json:"instances"`
	Functions       []UserFunction `json:"functions"`
	Types           []UserType     `json:"types"`
	Constants       []UserConstant `json:"constants"`
	BlasRange       *SourceRange   `json:"blas_range,omitempty"`
}

// Function returns the user function with the given ID.
func (m *Manifest) Function(id DeclID) (UserFunction, bool) {
	for _, f := range m.Functions {
		if f.ID == id {
			return f, true
		}
	}
	return UserFunction{}, false
}

// Instance returns the instance with the given name.
func (m *Manifest) Instance(name string) (Instance, bool) {
	for _, inst := range m.Instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instance{}, false
}
