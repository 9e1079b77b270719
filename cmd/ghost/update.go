package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the installation (git pull in a source checkout)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(installDir())
	},
}

// installDir resolves where the running binary lives. Package installs
// put it under /opt/spaceblack; source installs run from the checkout.
func installDir() string {
	exe, err := os.Executable()
	if err != nil {
		return workspace
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func runUpdate(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		fmt.Printf("No git checkout found in %s.\n", dir)
		fmt.Println("This looks like a package install; update it with your package manager")
		fmt.Println("(apt upgrade / dnf upgrade) or re-run the installer script.")
		return nil
	}

	gitPath, err := exec.LookPath("git")
	if err != nil {
		return fmt.Errorf("git is required for source updates but was not found in PATH")
	}

	fmt.Printf("Updating %s...\n", dir)
	pull := exec.Command(gitPath, "-C", dir, "pull", "--ff-only")
	pull.Stdout = os.Stdout
	pull.Stderr = os.Stderr
	if err := pull.Run(); err != nil {
		return fmt.Errorf("git pull failed: %w", err)
	}
	fmt.Println("Update complete. Restart ghost to pick up the new version.")
	return nil
}
