/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"wireframer/internal/config"
	"wireframer/internal/design"
	"wireframer/internal/domain"
	"wireframer/internal/export"
	applog "wireframer/internal/log"
	"wireframer/internal/registry"
	"wireframer/internal/version"
	"wireframer/internal/workspace"
)

type app struct {
	ref        *workspaceRef
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	dir        string
	configPath string
	yes        bool
	logLevel   string
}

func newRootCmd(ref *workspaceRef, in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{ref: ref, in: in, out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "wireframer",
		Short:         "Wireframer edits low-fidelity screen wireframes",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	pf := root.PersistentFlags()
	pf.StringVarP(&a.dir, "dir", "C", ".", "workspace directory")
	pf.StringVar(&a.configPath, "config", "", "config file (default "+defaultConfigHint()+")")
	pf.BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")
	pf.StringVar(&a.logLevel, "log-level", "", "override the log level")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.showCmd(),
		a.addScreenCmd(),
		a.addCmd(),
		a.catalogCmd(),
		a.exportCmd(),
	)
	return root
}

func defaultConfigHint() string {
	if p, err := config.ConfigPath(); err == nil {
		return p
	}
	return "~/.config/wireframer/config.yaml"
}

func (a *app) loadConfig() config.AppConfig {
	var (
		cfg config.AppConfig
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Output:    a.errOut,
	})
	if err != nil {
		applog.WithComponent("cli").Warn("config not loaded", slog.Any("err", err))
	}
	return cfg
}

func (a *app) open(cmd *cobra.Command) (*workspace.Workspace, error) {
	cfg := a.loadConfig()
	if a.yes {
		cfg.General.Confirm = "always"
	}
	ws, err := workspace.Open(cmd.Context(), a.dir, workspace.Options{Config: cfg, In: a.in, Out: a.errOut})
	if err != nil {
		return nil, err
	}
	a.ref.ws = ws
	for _, w := range ws.Warnings() {
		_, _ = fmt.Fprintln(a.errOut, "warning:", w)
	}
	return ws, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, version.String())
			return err
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a workspace seeded with the default screens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.dir = args[0]
			}
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			if ws.Gateway().Draft().Exists() {
				return fmt.Errorf("%s already holds a wireframe", ws.Dir())
			}
			if err := ws.Save(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "Created workspace at", ws.Dir())
			return err
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the screens and their component trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			printSnapshot(a.out, ws.Model().Snapshot())
			return nil
		},
	}
}

func printSnapshot(w io.Writer, snap design.Snapshot) {
	for _, s := range snap.Screens {
		mark := " "
		if s.ID == snap.SelectedScreenID {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s %s (%d components) [%s]\n", mark, s.IACode, s.Name, len(s.Components), s.ID)
		byID := make(map[string]domain.Component, len(s.Components))
		for _, c := range s.Components {
			byID[c.ID] = c
		}
		var walk func(c domain.Component, depth int)
		walk = func(c domain.Component, depth int) {
			r := c.Rect()
			_, _ = fmt.Fprintf(w, "  %s%s %q z=%d at %g,%g %gx%g [%s]\n",
				strings.Repeat("  ", depth), c.IACode, c.Label, c.ZIndex, r.X, r.Y, r.W, r.H, c.ID)
			for _, id := range c.Children {
				if child, ok := byID[id]; ok {
					walk(child, depth+1)
				}
			}
		}
		for _, c := range s.Components {
			if c.ParentID == "" {
				walk(c, 0)
			}
		}
	}
}

// findScreen resolves ref as a screen id, iaCode or name.
func findScreen(snap design.Snapshot, ref string) (domain.Screen, error) {
	for _, s := range snap.Screens {
		if s.ID == ref || strings.EqualFold(s.IACode, ref) || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return domain.Screen{}, fmt.Errorf("unknown screen %q", ref)
}

func (a *app) addScreenCmd() *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "add-screen",
		Short: "Append a screen and select it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			m := ws.Model()
			s := m.AddScreen()
			if name != "" {
				if err := m.UpdateScreenField("name", name); err != nil {
					return err
				}
			}
			if description != "" {
				if err := m.UpdateScreenField("description", description); err != nil {
					return err
				}
			}
			if err := ws.Save(cmd.Context()); err != nil {
				return err
			}
			sel, _ := m.Snapshot().SelectedScreen()
			_, err = fmt.Fprintf(a.out, "Added %s %s [%s]\n", s.IACode, sel.Name, s.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "screen name")
	cmd.Flags().StringVar(&description, "description", "", "screen description")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var (
		screen, parent string
		x, y           float64
	)
	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Place a component from the catalog on a screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			m := ws.Model()
			if screen != "" {
				s, err := findScreen(m.Snapshot(), screen)
				if err != nil {
					return err
				}
				if err := m.SelectScreen(s.ID); err != nil {
					return err
				}
			}
			pos := m.Policy().DefaultPosition
			if cmd.Flags().Changed("x") {
				pos.X = x
			}
			if cmd.Flags().Changed("y") {
				pos.Y = y
			}
			c, err := m.AddComponentAt(args[0], pos)
			if err != nil {
				return err
			}
			if parent != "" {
				if err := m.Reparent(c.ID, resolveComponent(m.Snapshot(), parent)); err != nil {
					return err
				}
			}
			if err := ws.Save(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Added %s %q [%s]\n", c.IACode, c.Label, c.ID)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&screen, "screen", "", "target screen (id, iaCode or name); default the selected one")
	f.StringVar(&parent, "parent", "", "container to nest the component in (id or iaCode)")
	f.Float64Var(&x, "x", 0, "left edge in canvas units")
	f.Float64Var(&y, "y", 0, "top edge in canvas units")
	return cmd
}

// resolveComponent maps an iaCode on the selected screen to its id.
func resolveComponent(snap design.Snapshot, ref string) string {
	if s, ok := snap.SelectedScreen(); ok {
		for _, c := range s.Components {
			if strings.EqualFold(c.IACode, ref) {
				return c.ID
			}
		}
	}
	return ref
}

func (a *app) catalogCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "catalog [query]",
		Short: "List component archetypes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.loadConfig()
			cat := registry.Builtin()
			if cfg.Registry.Extensions != "" {
				c, err := registry.LoadExtensions(cat, cfg.Registry.Extensions)
				if err != nil {
					return err
				}
				cat = c
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			var list []registry.Archetype
			if category != "" {
				if !registry.ValidCategory(registry.Category(category)) {
					return fmt.Errorf("unknown category %q", category)
				}
				list = cat.FilterCategory(registry.Category(category), query)
			} else {
				list = cat.Filter(query)
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].Category < list[j].Category })
			for _, ar := range list {
				_, _ = fmt.Fprintf(a.out, "%-12s %-18s %-4s %4gx%-4g %s\n", ar.Category, ar.Type, ar.CodePrefix, ar.DefaultWidth, ar.DefaultHeight, ar.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format, out string
		screens     []string
		scale       float64
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render screens as PDF, PNG or SVG handoff sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			snap := ws.Model().Snapshot()
			var ids []string
			for _, ref := range screens {
				s, err := findScreen(snap, ref)
				if err != nil {
					return err
				}
				ids = append(ids, s.ID)
			}
			var written []string
			switch strings.ToLower(format) {
			case "pdf":
				if out == "" {
					out = "wireframe.pdf"
				}
				path := export.ResolveOut(ws.Dir(), out)
				err = export.ExportPDF(snap.Screens, path, export.PDFOptions{Title: ws.Config().General.ProjectLabel, Author: ws.User().Current().Name, Screens: ids})
				written = []string{path}
			case "png":
				written, err = export.ExportPNG(snap.Screens, export.ResolveOut(ws.Dir(), out), export.PNGOptions{Scale: scale, Screens: ids})
			case "svg":
				written, err = export.ExportSVG(snap.Screens, export.ResolveOut(ws.Dir(), out), export.SVGOptions{Screens: ids})
			default:
				return fmt.Errorf("unknown format %q (want pdf, png or svg)", format)
			}
			if err != nil {
				return err
			}
			for _, p := range written {
				rel, rerr := filepath.Rel(ws.Dir(), p)
				if rerr != nil {
					rel = p
				}
				_, _ = fmt.Fprintln(a.out, "wrote", rel)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "pdf", "pdf, png or svg")
	f.StringVarP(&out, "out", "o", "", "output file (pdf) or directory (png, svg); relative paths go under exports/")
	f.StringSliceVar(&screens, "screen", nil, "screens to export (id, iaCode or name); default all")
	f.Float64Var(&scale, "scale", 1, "pixels per canvas unit for png")
	return cmd
}
