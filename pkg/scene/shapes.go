package scene

import "github.com/aretw0/threeview/pkg/domain"

// Scene constructs a root scene node. Its id is always "scene".
func (v *View) Scene() *Object {
	return v.add(domain.TypeScene, nil)
}

// Group constructs an empty grouping node.
func (v *View) Group() *Object {
	return v.add(domain.TypeGroup, nil)
}

// Box constructs a box of the given width, height and depth.
func (v *View) Box(width, height, depth float64) *Object {
	return v.add(domain.TypeBox, []float64{width, height, depth})
}

// Sphere constructs a UV sphere.
func (v *View) Sphere(radius float64, widthSegments, heightSegments int) *Object {
	return v.add(domain.TypeSphere, []float64{radius, float64(widthSegments), float64(heightSegments)})
}

// Cylinder constructs a cylinder (or cone, when one radius is zero).
func (v *View) Cylinder(topRadius, bottomRadius, height float64, radialSegments, heightSegments int) *Object {
	return v.add(domain.TypeCylinder, []float64{
		topRadius, bottomRadius, height, float64(radialSegments), float64(heightSegments),
	})
}
