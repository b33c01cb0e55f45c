/*
Package threeview keeps 3D scenes on the server and mirrors them into browsers.

Application code builds a scene graph with plain method calls (boxes, spheres,
groups, materials, positions). Every mutation is encoded as a small textual
command and pushed to all browsers viewing the page over WebSocket. A browser
that connects late receives a replay of the current state, so every client
converges on the same scene.

# Concept

A page owns one View. The View holds the registry of objects in construction
order and a stack of grouping scopes: objects constructed inside a scope are
parented to the scope's group. Delivery is asynchronous and ordered per socket.

	create("box", "<id>", "<parent-id>", 1.0, 1.0, 1.0)
	material("<id>", "#ff0000", 0.5)
	move("<id>", 0, 1, 0)

# Usage

	engine := threeview.New(ctx, threeview.WithBuilder(func(ctx context.Context, v *scene.View) error {
		v.Scene()
		g := v.Group()
		return v.Within(g, func() error {
			v.Box(1, 1, 1).Material("#ff0000", 0.5)
			return nil
		})
	}))

	view, err := engine.Open(ctx, "home")
	if err != nil {
		log.Fatal(err)
	}
	view.Objects()[2].Move(0, 1, 0)

Serve engine.Hub() and engine.Pages() over HTTP with pkg/adapters/http, or
run the bundled server:

	threeview serve --config threeview.yaml
*/
package threeview
