package util

import (
	"math"
	"os"
	"sort"

	"golang.org/x/exp/constraints"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0777)
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

type Number interface {
	constraints.Integer | constraints.Float
}

func Sum[A Number](nums []A) float64 {
	var total float64
	for _, v := range nums {
		total += float64(v)
	}
	return total
}

// Mean returns false for an empty slice instead of NaN.
func Mean[A Number](nums []A) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	return Sum(nums) / float64(len(nums)), true
}

func Min[A constraints.Ordered](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
