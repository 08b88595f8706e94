//go:build !race

package authentic

func passwordHashCost() int {
	return 14
}
