//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the testbed on the software backend.
func (Run) Engine() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run engine...")
	if _, err := executeCmd("./bin/framebin", withArgs("-config", "framebin.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds and runs the testbed on the vulkan backend.
func (Run) Vulkan() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("./bin/framebin", withArgs("-config", "framebin.toml", "-backend", "vulkan"), withStream()); err != nil {
		return err
	}
	return nil
}
