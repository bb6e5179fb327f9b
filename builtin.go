package iconpane

import (
	"fmt"
	"io/fs"
)

const jsdelivr = "https://cdn.jsdelivr.net"

// builtinLibraries lists the libraries that ship with the panel. Local libraries
// get their Root assigned by RegisterBuiltins.
var builtinLibraries = []LibraryDescriptor{
	{
		ID:           "healthicons",
		Name:         "Health Icons",
		Description:  "740+ medical & health icons",
		Website:      "https://healthicons.org",
		License:      "CC0",
		TotalIcons:   740,
		Styles:       []StyleOption{{"filled", "Filled"}, {"outline", "Outline"}},
		DefaultStyle: "filled",
		Source:       LocalSource{PathTemplate: "icons/{style}/{category}/{name}.svg"},
	},
	{
		ID:           "bootstrap",
		Name:         "Bootstrap Icons",
		Description:  "2,000+ official Bootstrap icons",
		Website:      "https://icons.getbootstrap.com",
		License:      "MIT",
		TotalIcons:   2000,
		Styles:       []StyleOption{{"regular", "Regular"}},
		DefaultStyle: "regular",
		Source:       CDNSource{URLTemplate: jsdelivr + "/npm/bootstrap-icons@1.11.3/icons/{name}.svg"},
	},
	{
		ID:           "ionicons",
		Name:         "Ionicons",
		Description:  "1,300+ premium open source icons",
		Website:      "https://ionic.io/ionicons",
		License:      "MIT",
		TotalIcons:   1300,
		Styles:       []StyleOption{{"outline", "Outline"}, {"filled", "Filled"}, {"sharp", "Sharp"}},
		DefaultStyle: "outline",
		Source: CDNSource{
			URLTemplate: jsdelivr + "/npm/ionicons@7.4.0/dist/svg/{name}-{style}.svg",
			StyleTemplates: map[string]string{
				"filled": jsdelivr + "/npm/ionicons@7.4.0/dist/svg/{name}.svg",
			},
		},
	},
	{
		ID:           "remixicon",
		Name:         "Remix Icon",
		Description:  "3,100+ neutral style icons",
		Website:      "https://remixicon.com",
		License:      "Apache 2.0",
		TotalIcons:   3100,
		Styles:       []StyleOption{{"line", "Line"}, {"fill", "Fill"}},
		DefaultStyle: "line",
		Source:       CDNSource{URLTemplate: jsdelivr + "/npm/remixicon@4.5.0/icons/{category}/{name}-{style}.svg"},
	},
	{
		ID:           "iconoir",
		Name:         "Iconoir",
		Description:  "1,600+ minimal SVG icons",
		Website:      "https://iconoir.com",
		License:      "MIT",
		TotalIcons:   1600,
		Styles:       []StyleOption{{"regular", "Regular"}, {"solid", "Solid"}},
		DefaultStyle: "regular",
		Source:       CDNSource{URLTemplate: jsdelivr + "/gh/iconoir-icons/iconoir@main/icons/{style}/{name}.svg"},
	},
	{
		ID:           "boxicons",
		Name:         "Boxicons",
		Description:  "1,500+ carefully designed icons",
		Website:      "https://boxicons.com",
		License:      "MIT",
		TotalIcons:   1500,
		Styles:       []StyleOption{{"regular", "Regular"}, {"solid", "Solid"}, {"logos", "Logos"}},
		DefaultStyle: "regular",
		Source: CDNSource{
			URLTemplate: jsdelivr + "/npm/boxicons@2.1.4/svg/regular/bx-{name}.svg",
			StyleTemplates: map[string]string{
				"solid": jsdelivr + "/npm/boxicons@2.1.4/svg/solid/bxs-{name}.svg",
				"logos": jsdelivr + "/npm/boxicons@2.1.4/svg/logos/bxl-{name}.svg",
			},
		},
	},
}

// RegisterBuiltins registers the bundled library table. Local libraries read from
// assets; they are skipped when assets is nil.
func RegisterBuiltins(r *Registry, assets fs.FS) error {
	for _, d := range builtinLibraries {
		if src, ok := d.Source.(LocalSource); ok {
			if assets == nil {
				continue
			}
			src.Root = assets
			d.Source = src
		}
		if err := r.Register(d); err != nil {
			return fmt.Errorf("register builtin: %w", err)
		}
	}
	return nil
}
