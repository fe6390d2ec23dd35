package pathkey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "drive path backslashes", in: `C:\Work\Lift\Lift.IAM`, want: "c:/work/lift/lift.iam"},
		{name: "drive path forward slashes", in: "c:/work/lift/sub/../Lift.iam", want: "c:/work/lift/lift.iam"},
		{name: "unc path", in: `\\Server\Vault\Part.ipt`, want: "//server/vault/part.ipt"},
		{name: "posix absolute", in: "/Projects/A/../B/Bolt.IPT", want: "/projects/b/bolt.ipt"},
		{name: "surrounding spaces", in: "  /p/Q.ipt  ", want: "/p/q.ipt"},
		{name: "empty", in: "", want: ""},
		{name: "unicode folding", in: "/Teile/STRASSE.ipt", want: "/teile/strasse.ipt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_RelativeBecomesAbsolute(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got := Normalize(filepath.Join("sub", "Part.ipt"))
	want := Normalize(filepath.Join(wd, "sub", "Part.ipt"))
	assert.Equal(t, want, got)
	assert.True(t, filepath.IsAbs(filepath.FromSlash(got)))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(`C:\A\b.ipt`, "c:/a/B.IPT"))
	assert.False(t, Equal("/a/b.ipt", "/a/c.ipt"))
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(DefaultContentCenterPatterns...)

	assert.True(t, m.Match(`C:\Users\Public\Documents\Autodesk\Inventor 2026\Content Center Files\Fasteners\bolt.ipt`))
	assert.True(t, m.Match(`C:\CONTENT CENTER FILES\bolt.ipt`))
	assert.False(t, m.Match(`C:\Projects\MyAssembly\Bracket.ipt`))
	assert.False(t, m.Match(`C:\Content Center\bolt.ipt`))
}

func TestMatcher_GlobsAndComments(t *testing.T) {
	m := NewMatcher("# vendor parts", "", "*.tmp.ipt", `vendor\`)

	assert.Equal(t, []string{"*.tmp.ipt", "vendor/"}, m.Patterns())
	assert.True(t, m.Match("/work/Frame.TMP.ipt"))
	assert.True(t, m.Match("/work/Vendor/motor.ipt"))
	assert.False(t, m.Match("/work/frame.ipt"))
}

func TestMatcher_Empty(t *testing.T) {
	var nilMatcher *Matcher
	assert.False(t, nilMatcher.Match("/a.ipt"))
	assert.True(t, nilMatcher.Empty())

	m := NewMatcher()
	assert.True(t, m.Empty())
	assert.False(t, m.Match("/a.ipt"))
}

func TestIsAbs(t *testing.T) {
	assert.True(t, IsAbs(`C:\Work\a.iam`))
	assert.True(t, IsAbs("d:/work/a.iam"))
	assert.True(t, IsAbs(`\\server\share\a.iam`))
	assert.True(t, IsAbs("/work/a.iam"))
	assert.False(t, IsAbs("parts/a.ipt"))
	assert.False(t, IsAbs("C:a.ipt"))
}
