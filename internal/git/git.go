package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// CurrentBranch returns the branch checked out in the repository at dir
func CurrentBranch(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no repository directory")
	}

	cmd := exec.Command("git", "-C", dir, "branch", "--show-current")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	branch := strings.TrimSpace(string(output))
	if branch == "" {
		return "", fmt.Errorf("not on a branch")
	}

	return branch, nil
}
