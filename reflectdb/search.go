package reflectdb

// SearchHash finds hash among n elements sorted ascending by hashAt, and
// returns the index of a matching element or -1.
//
// When several elements share the hash any one of them may be returned; use
// EqualRange to visit all of them.
func SearchHash(n int, hashAt func(int) uint32, hash uint32) int {
	first, last := 0, n-1
	for first <= last {
		mid := int(uint(first+last) >> 1)
		h := hashAt(mid)
		switch {
		case h < hash:
			first = mid + 1
		case h > hash:
			last = mid - 1
		default:
			return mid
		}
	}
	return -1
}

// EqualRange widens a match found at i to the half open range [lo, hi) of
// elements sharing its hash.
func EqualRange(n int, hashAt func(int) uint32, i int) (lo, hi int) {
	if i < 0 || i >= n {
		return 0, 0
	}
	hash := hashAt(i)
	lo, hi = i, i+1
	for lo > 0 && hashAt(lo-1) == hash {
		lo--
	}
	for hi < n && hashAt(hi) == hash {
		hi++
	}
	return lo, hi
}
