package data

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/scenecore/internal/vmath"
	"gopkg.in/yaml.v3"
)

// RotationSpec is an axis-angle rotation in degrees.
type RotationSpec struct {
	Axis    mgl64.Vec3 `yaml:"axis"`
	Degrees float64    `yaml:"degrees"`
}

// ComponentSpec names a component kind and its raw params. Params stay a
// yaml.Node so the receiving kind decodes them into its own type.
type ComponentSpec struct {
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// NodeSpec is one node of the boot scene with its subtree.
type NodeSpec struct {
	Name       string          `yaml:"name"`
	Position   mgl64.Vec3      `yaml:"position"`
	Rotation   *RotationSpec   `yaml:"rotation"`
	Scale      *mgl64.Vec3     `yaml:"scale"` // nil = (1,1,1)
	Components []ComponentSpec `yaml:"components"`
	Children   []NodeSpec      `yaml:"children"`
}

// SceneLayout is the boot scene: a forest of node specs.
type SceneLayout struct {
	Nodes []NodeSpec `yaml:"nodes"`
}

// LoadSceneLayout loads a scene layout YAML file.
func LoadSceneLayout(path string) (*SceneLayout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene layout: %w", err)
	}
	l, err := ParseSceneLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scene layout %s: %w", path, err)
	}
	return l, nil
}

func ParseSceneLayout(raw []byte) (*SceneLayout, error) {
	var l SceneLayout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	for i := range l.Nodes {
		if err := l.Nodes[i].validate(); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// Count returns the total number of nodes in the layout.
func (l *SceneLayout) Count() int {
	n := 0
	for i := range l.Nodes {
		n += l.Nodes[i].count()
	}
	return n
}

// Transform returns the node's local transform.
func (n *NodeSpec) Transform() vmath.Transform {
	t := vmath.Identity()
	t.Position = n.Position
	if n.Rotation != nil {
		t.Rotation = vmath.AxisAngle(n.Rotation.Axis, n.Rotation.Degrees)
	}
	if n.Scale != nil {
		t.Scale = *n.Scale
	}
	return t
}

// ParamsOrNil returns the params node, or nil when none were given.
func (c *ComponentSpec) ParamsOrNil() *yaml.Node {
	if c.Params.Kind == 0 {
		return nil
	}
	return &c.Params
}

func (n *NodeSpec) count() int {
	total := 1
	for i := range n.Children {
		total += n.Children[i].count()
	}
	return total
}

func (n *NodeSpec) validate() error {
	for _, c := range n.Components {
		if c.Kind == "" {
			return fmt.Errorf("node %q: component without kind", n.Name)
		}
	}
	for i := range n.Children {
		if err := n.Children[i].validate(); err != nil {
			return err
		}
	}
	return nil
}
