// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	BundleNotFoundId Id = iota + 1
	MalformedContainerId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also: "
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	bundleNotFoundIssue = &Issue{
		id: BundleNotFoundId,
		mdMsg: `
# Bundle file not found

The path you gave does not point to a readable file.

## Things you can try:
- Double-check the path and extension (bundles are usually .zip files):
~~~
$ ls -l <path-to-bundle>
~~~

- Generate a known-good sample bundle and verify that instead:
~~~
$ evb demo --output demo.zip
$ evb verify demo.zip
~~~`,
	}

	malformedContainerIssue = &Issue{
		id: MalformedContainerId,
		mdMsg: `
# Not a readable bundle archive

The file exists but cannot be opened as a ZIP archive, so no checks could
run. Evidence bundles are plain ZIP files with meta.json and aal.ndjson
at the top level.

## Things you can try:
- Confirm the file really is a ZIP archive:
~~~
$ unzip -l <path-to-bundle>
~~~

- If it was downloaded or copied, the transfer may have truncated it;
  re-export the bundle from the producing system and try again.

- Compare against a known-good bundle:
~~~
$ evb demo --output demo.zip
$ evb verify demo.zip
~~~`,
	}

	registry = map[Id]*Issue{
		BundleNotFoundId:     bundleNotFoundIssue,
		MalformedContainerId: malformedContainerIssue,
	}
)

// Get returns the catalog entry for id, or nil when the id is unknown.
func Get(id Id) *Issue {
	return registry[id]
}
