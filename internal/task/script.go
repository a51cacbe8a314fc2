package task

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// RestrictedUserScript returns the shell steps that create user without a
// login password, prepare ~/.ssh (0700) and authorized_keys (0600), and
// append the public key staged at keyFile. Every step is safe to re-run:
// existing users are kept and a key already present is not appended twice.
//
// The script expects to run as root or as a user with passwordless sudo.
func RestrictedUserScript(user, keyFile string) string {
	u := shellescape.Quote(user)
	k := shellescape.Quote(keyFile)
	inUser := func(cmd string) string {
		return fmt.Sprintf("sudo -H -u %s sh -c %s", u, shellescape.Quote(cmd))
	}

	lines := []string{
		fmt.Sprintf("id -u %s >/dev/null 2>&1 || sudo adduser --disabled-password --gecos '' %s", u, u),
		inUser("mkdir -p ~/.ssh"),
		inUser("chmod 700 ~/.ssh"),
		inUser("touch ~/.ssh/authorized_keys"),
		inUser("chmod 600 ~/.ssh/authorized_keys"),
		inUser(fmt.Sprintf("grep -qxF -f %s ~/.ssh/authorized_keys || cat %s >> ~/.ssh/authorized_keys", k, k)),
	}
	return strings.Join(lines, "\n") + "\n"
}

// RemoveUserScript returns the steps that delete user and its home directory.
func RemoveUserScript(user string) string {
	u := shellescape.Quote(user)
	return fmt.Sprintf("if id -u %s >/dev/null 2>&1; then sudo deluser --remove-home %s; fi\n", u, u)
}
