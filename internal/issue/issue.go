// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	PrivilegeUnavailableId Id = iota + 1
	UnsupportedOSId
	PackageManagerNotFoundId
	ContainerEngineInstallFailedId
	ComposeInstallFailedId
	PythonTooOldId
	PipUnavailableId
	FrameworkInstallFailedId
	PostInstallFailedId
	ProfileUpdateFailedId
	ConfigLoadFailedId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the guidance text, rendered with glamour.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry with remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render formats the guidance for the terminal. stylePath is a glamour
// style name ("dark", "light", "notty", "auto") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	privilegeUnavailableIssue = &Issue{
		id: PrivilegeUnavailableId,
		mdMsg: `
# Cannot gain root privileges!

devhost installs system packages and must run as root or be able to use sudo.
Nothing was installed.

## Things you can try:
- Run devhost as root:
~~~
$ su -c devhost
~~~

- Or install sudo and add yourself to the sudoers (as root):
~~~
# apt-get install sudo
# usermod -aG sudo alice
~~~`,
	}

	unsupportedOSIssue = &Issue{
		id: UnsupportedOSId,
		mdMsg: `
# Operating system not supported!

devhost provisions Linux hosts through their native package manager.

## Things you can try:
- Run devhost inside a Linux virtual machine or WSL2
- Use Docker Desktop or Podman Desktop on macOS and Windows`,
	}

	packageManagerNotFoundIssue = &Issue{
		id: PackageManagerNotFoundId,
		mdMsg: `
# No supported package manager found!

devhost drives one of: apt-get, dnf, yum, zypper, pacman, apk.

## Things you can try:
- Make sure the package manager is on PATH (sudo may reset PATH)
- Force one in your config file:
~~~cue
package_manager: "dnf"
~~~`,
		docLinks: []HttpLink{"https://www.freedesktop.org/software/systemd/man/os-release.html"},
	}

	containerEngineInstallFailedIssue = &Issue{
		id: ContainerEngineInstallFailedId,
		mdMsg: `
# Container engine could not be installed!

Every package candidate and the convenience install script failed.

## Things you can try:
- Check the package manager output above for repository or network errors
- Install Docker manually following the upstream instructions
- Switch to Podman:
~~~cue
container: engine: "podman"
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/engine/install/"},
	}

	composeInstallFailedIssue = &Issue{
		id: ComposeInstallFailedId,
		mdMsg: `
# Compose could not be installed!

Both the compose plugin package and the classic docker-compose package failed.

## Things you can try:
- Add Docker's own package repository, which ships docker-compose-plugin
- Install the plugin binary manually into ~/.docker/cli-plugins/`,
		docLinks: []HttpLink{"https://docs.docker.com/compose/install/linux/"},
	}

	pythonTooOldIssue = &Issue{
		id: PythonTooOldId,
		mdMsg: `
# Python is too old!

The distribution's python3 package is older than the configured minimum.

## Things you can try:
- Enable a repository with a newer Python (deadsnakes, AppStream modules)
- Upgrade the distribution release
- Lower the requirement if your project allows it:
~~~cue
python: min_version: "3.8"
~~~`,
	}

	pipUnavailableIssue = &Issue{
		id: PipUnavailableId,
		mdMsg: `
# pip is not available!

Neither the OS pip package nor ensurepip could provide pip for python3.

## Things you can try:
- Install the pip package for your distribution manually
- Bootstrap pip with get-pip.py`,
		docLinks: []HttpLink{"https://pip.pypa.io/en/stable/installation/"},
	}

	frameworkInstallFailedIssue = &Issue{
		id: FrameworkInstallFailedId,
		mdMsg: `
# The web framework could not be installed!

pip, the OS package and (when allowed) pip with --break-system-packages all failed.

## Things you can try:
- Check network access to PyPI
- Use a virtual environment:
~~~
$ python3 -m venv .venv && .venv/bin/pip install flask
~~~

- Allow pip to override the externally-managed marker:
~~~cue
python: allow_break_system_packages: true
~~~`,
		docLinks: []HttpLink{"https://peps.python.org/pep-0668/"},
	}

	postInstallFailedIssue = &Issue{
		id: PostInstallFailedId,
		mdMsg: `
# Container engine post-install step failed!

Strict mode turns docker group or service setup failures into errors.

## Things you can try:
- Run the failed command shown above manually
- Disable strict mode or the post-install steps:
~~~cue
container: post_install: false
~~~`,
	}

	profileUpdateFailedIssue = &Issue{
		id: ProfileUpdateFailedId,
		mdMsg: `
# Could not update the shell profile!

~/.local/bin holds scripts installed with pip --user and should be on PATH.

## Things you can try:
- Add this line to your shell profile yourself:
~~~
export PATH="$HOME/.local/bin:$PATH"
~~~

- Point devhost at another file:
~~~cue
shell: profile_file: "~/.bash_profile"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file is not valid CUE or does not match the schema.

## Things you can try:
- Show the effective configuration and its location:
~~~
$ devhost config show
$ devhost config path
~~~

- Write a fresh default file:
~~~
$ devhost config init
~~~`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		privilegeUnavailableIssue.Id():         privilegeUnavailableIssue,
		unsupportedOSIssue.Id():                unsupportedOSIssue,
		packageManagerNotFoundIssue.Id():       packageManagerNotFoundIssue,
		containerEngineInstallFailedIssue.Id(): containerEngineInstallFailedIssue,
		composeInstallFailedIssue.Id():         composeInstallFailedIssue,
		pythonTooOldIssue.Id():                 pythonTooOldIssue,
		pipUnavailableIssue.Id():               pipUnavailableIssue,
		frameworkInstallFailedIssue.Id():       frameworkInstallFailedIssue,
		postInstallFailedIssue.Id():            postInstallFailedIssue,
		profileUpdateFailedIssue.Id():          profileUpdateFailedIssue,
		configLoadFailedIssue.Id():             configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
