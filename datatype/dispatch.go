package datatype

// Visitor is implemented by callers that need to act on a Type-tagged value
// without knowing the concrete type at compile time (e.g. the catalogue
// resolving a register's declared Type into a concrete accessor).
type Visitor interface {
	VisitInt8()
	VisitUint8()
	VisitInt16()
	VisitUint16()
	VisitInt32()
	VisitUint32()
	VisitInt64()
	VisitUint64()
	VisitFloat32()
	VisitFloat64()
	VisitBoolean()
	VisitString()
	VisitVoid()
}

// Dispatch calls the Visitor method matching t. Unknown values of t are a
// programmer error and are treated as Void.
func Dispatch(t Type, v Visitor) {
	switch t {
	case Int8:
		v.VisitInt8()
	case Uint8:
		v.VisitUint8()
	case Int16:
		v.VisitInt16()
	case Uint16:
		v.VisitUint16()
	case Int32:
		v.VisitInt32()
	case Uint32:
		v.VisitUint32()
	case Int64:
		v.VisitInt64()
	case Uint64:
		v.VisitUint64()
	case Float32:
		v.VisitFloat32()
	case Float64:
		v.VisitFloat64()
	case Boolean:
		v.VisitBoolean()
	case String:
		v.VisitString()
	default:
		v.VisitVoid()
	}
}
