// Package mesh builds the building strip and bends it into a circular arc.
//
// The rest shape is a flat vertical strip of N segments: N+1 rows of a
// left and a right vertex, two triangles per row quad. [Deform] maps every
// rest vertex onto an arc whose tip lateral offset matches a target,
// keeping the strip's width along the arc normal so cross-sections stay
// perpendicular to the bend.
//
//	geo, _ := mesh.Build(mesh.Params{Width: 1, Height: 5, Segments: 100})
//	bent := mesh.Deform(geo, 0.3, mesh.BendOptions{Cutoff: 100})
//	anchor := bent.Anchor(0.75)
//
// A [Cache] keyed by (width, height, segments) owns the rest shape; the
// deform step never rebuilds it.
package mesh
