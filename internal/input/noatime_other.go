//go:build unix && !linux

package input

const openNoATime = 0
