//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every test with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the frame core tests only.
func (Test) Frame() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./engine/renderer/frame/...", "./engine/systems/..."), withStream())
	return err
}
