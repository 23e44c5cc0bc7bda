// Package render rasterizes the bent building pair for snapshots and plots
// displacement history to PNG. It is a headless stand-in for the external
// renderer that normally consumes the mesh.
package render
