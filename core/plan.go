package core

import "fmt"

// plan orders mods for configure/start. Insertion order is kept except that
// a Dependent module is moved after every module publishing a key it
// depends on. A key nobody in mods publishes must satisfy bound.
func plan(mods []Module, bound func(Key) bool) ([]Module, error) {
	providers := map[Key][]int{}
	for i, m := range mods {
		k := KeyOf(m)
		providers[k] = append(providers[k], i)
	}

	visited := make([]bool, len(mods))
	temp := make([]bool, len(mods))
	out := make([]Module, 0, len(mods))
	var visit func(int) error

	visit = func(i int) error {
		if temp[i] {
			return fmt.Errorf("%w at module %q", ErrDependencyCycle, mods[i].Name())
		}
		if visited[i] {
			return nil
		}
		temp[i] = true
		if d, ok := mods[i].(Dependent); ok {
			for _, key := range d.DependsOn() {
				idx, ok := providers[key]
				if !ok {
					if bound != nil && bound(key) {
						continue
					}
					return fmt.Errorf("%w: %q depends on %s", ErrMissingDependency, mods[i].Name(), key)
				}
				for _, j := range idx {
					if j == i {
						continue
					}
					if err := visit(j); err != nil {
						return err
					}
				}
			}
		}
		visited[i] = true
		temp[i] = false
		out = append(out, mods[i])
		return nil
	}

	for i := range mods {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
