/*
Package iconpane resolves icons from heterogeneous icon libraries and renders them
into fixed-size bitmaps ready to be placed into a document.

A library is either served from a local asset bundle, from a CDN through a URL
template, or from content embedded in its manifest (possibly as a compressed package).
The Style Engine recolors the vector markup according to the color model of the
library, and the Rasterizer draws it on a square canvas.

The package provides a command line interface exposing the pipeline.
To check the supported commands type:

	$ iconpane --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"fmt"
		"os"

		"github.com/openslides/iconpane"
	)

	func main() {
		reg := iconpane.NewRegistry()
		if err := iconpane.RegisterBuiltins(reg, os.DirFS("assets")); err != nil {
			panic(err)
		}
		p := iconpane.NewProcessor(reg, iconpane.NewResolver(reg, iconpane.ResolverOptions{}), nil)

		r, err := p.Process(context.Background(), iconpane.Request{
			LibraryID: "bootstrap",
			Icon:      iconpane.IconReference{Name: "alarm"},
			Render:    iconpane.DefaultRenderStyle(96),
		})
		if err != nil {
			fmt.Printf("Error rendering icon: %s", err.Error())
			return
		}
		os.WriteFile("alarm.png", r.Image, 0o644)
	}
*/
package iconpane
