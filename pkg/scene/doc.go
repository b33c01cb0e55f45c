/*
Package scene implements the server-side scene graph and its view connector.

A View owns the ordered object registry of one page. Objects are constructed
through the View, capture the innermost open grouping scope as their parent,
and broadcast a create command to every socket of the page. Material and Move
overwrite state and broadcast again. When a socket connects, the View replays
the current state of every object, in construction order, to that socket only.

	v := scene.NewView("home", registry, pool)
	v.Scene()
	g := v.Group()
	_ = v.Within(g, func() error {
		v.Box(1, 1, 1).Material("#ff0000", 0.5)
		return nil
	})

Scene construction for a page must come from one logical flow at a time: the
grouping stack is shared by every caller of the View. Use page.Manager.WithLock
to serialize flows.
*/
package scene
