package util

func IntPtr(v int) *int {
	return &v
}

func UintPtr(v uint) *uint {
	return &v
}

func BoolPtr(v bool) *bool {
	return &v
}
