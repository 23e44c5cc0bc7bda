// Package dynamo provides the primitives shared by the sway engine.
//
// The package defines the small value types and error taxonomy used by the
// structural model and the bending mesh:
//
//   - [Vec2], [Vec3]: plain value vectors for UVs and vertex positions
//   - [DomainError]: a non-physical input, wraps [ErrDomain]
//   - [ErrNumericInstability]: precision policy signal from iterative solves
//
// # Errors
//
// Domain errors are detected before use and reported to the caller; the
// caller keeps its last valid state:
//
//	if errors.Is(err, dynamo.ErrDomain) {
//	    // hold the previous frame
//	}
//
// # Thread Safety
//
// Everything here is a value type. Nothing in the package holds state.
package dynamo
