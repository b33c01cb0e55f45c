// Package demo is the scene served by `threeview serve` when no application
// is embedded: a ring of shapes on a floor that recolor when clicked and,
// optionally, orbit around the origin.
package demo

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/scene"
)

// Palette is the color cycle applied on click.
var Palette = []string{"#ef4444", "#f59e0b", "#22c55e", "#3b82f6", "#a855f7"}

const ringRadius = 2.0

// Build constructs the demo scene into v.
func Build(ctx context.Context, v *scene.View) error {
	v.Scene()
	v.Box(8, 0.1, 8).Material("#334155", 1).Move(0, -0.05, 0)

	ring := v.Group()
	return v.Within(ring, func() error {
		shapes := []*scene.Object{
			v.Box(1, 1, 1),
			v.Sphere(0.6, 32, 16),
			v.Cylinder(0.5, 0.5, 1.2, 24, 1),
			v.Cylinder(0, 0.6, 1.2, 24, 1),
		}
		for i, obj := range shapes {
			x, z := ringPosition(i, len(shapes), 0)
			obj.Material(Palette[i%len(Palette)], 1).Move(x, 0.6, z)
		}
		return nil
	})
}

// OnClick advances the clicked object to the next palette color. It reports
// false for clicks that miss every object.
func OnClick(ctx context.Context, v *scene.View, ev domain.ClickEvent) bool {
	obj, err := v.Lookup(ev.ObjectID)
	if err != nil {
		return false
	}
	if obj.Type() == domain.TypeScene || obj.Type() == domain.TypeGroup {
		return false
	}
	obj.Material(nextColor(obj.Color()), obj.Opacity())
	return true
}

func nextColor(current string) string {
	for i, c := range Palette {
		if c == current {
			return Palette[(i+1)%len(Palette)]
		}
	}
	return Palette[0]
}

func ringPosition(i, n int, phase float64) (x, z float64) {
	angle := phase + 2*math.Pi*float64(i)/float64(n)
	return ringRadius * math.Cos(angle), ringRadius * math.Sin(angle)
}

// Pages is the page access the animator needs. *page.Manager implements it.
type Pages interface {
	Pages() []string
	WithLock(ctx context.Context, pageID string, fn func(context.Context, *scene.View) error) error
}

// Animate orbits the members of every ring group of every open page, one
// step per tick, until ctx is done.
func Animate(ctx context.Context, pages Pages, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			phase := now.Sub(start).Seconds() * 0.5
			for _, pageID := range pages.Pages() {
				err := pages.WithLock(ctx, pageID, func(ctx context.Context, v *scene.View) error {
					Step(v, phase)
					return nil
				})
				if errors.Is(err, domain.ErrPageNotFound) {
					continue // closed since listed
				}
				if err != nil && ctx.Err() == nil {
					logger.Warn("Animation step failed", "page_id", pageID, "err", err)
				}
			}
		}
	}
}

// Step places the children of each group on the ring at the given phase.
func Step(v *scene.View, phase float64) {
	members := make(map[*scene.Object][]*scene.Object)
	var groups []*scene.Object
	for _, obj := range v.Objects() {
		parent := obj.Parent()
		if parent == nil || parent.Type() != domain.TypeGroup {
			continue
		}
		if _, ok := members[parent]; !ok {
			groups = append(groups, parent)
		}
		members[parent] = append(members[parent], obj)
	}

	for _, g := range groups {
		children := members[g]
		for i, obj := range children {
			x, z := ringPosition(i, len(children), phase)
			obj.Move(x, obj.Position().Y, z)
		}
	}
}
