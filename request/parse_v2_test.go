package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-git.v4/plumbing"
)

type fakeResolver map[string]plumbing.Hash

func (f fakeResolver) Resolve(name string) (plumbing.Hash, bool) {
	h, ok := f[name]
	return h, ok
}

func TestParseV2FetchWants(t *testing.T) {
	oid := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	req, err := ParseV2Fetch([]string{
		"want aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"thin-pack",
		"no-progress",
		"done",
	}, FetchOptions{AllowFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{oid}, req.Wants)
	assert.True(t, req.Capabilities.ThinPack)
	assert.True(t, req.Capabilities.NoProgress)
	assert.True(t, req.Done)
}

func TestParseV2FetchWantRef(t *testing.T) {
	c1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	resolver := fakeResolver{"refs/heads/one": c1}

	req, err := ParseV2Fetch([]string{
		"want-ref refs/heads/one",
		"done",
	}, FetchOptions{AllowRefInWant: true, Resolver: resolver})
	require.NoError(t, err)
	require.Len(t, req.WantedRefs, 1)
	assert.Equal(t, "refs/heads/one", req.WantedRefs[0].Name)
	assert.Equal(t, c1, req.WantedRefs[0].Oid)
}

func TestParseV2FetchWantRefDisallowed(t *testing.T) {
	_, err := ParseV2Fetch([]string{"want-ref refs/heads/one"}, FetchOptions{})
	require.Error(t, err)
}

func TestParseV2FetchWantRefMissing(t *testing.T) {
	_, err := ParseV2Fetch([]string{"want-ref refs/heads/missing"}, FetchOptions{
		AllowRefInWant: true,
		Resolver:       fakeResolver{},
	})
	require.Error(t, err)
}

func TestParseV2FetchDoneWithoutWant(t *testing.T) {
	_, err := ParseV2Fetch([]string{"done"}, FetchOptions{})
	require.Error(t, err)
}

func TestParseV2FetchUnrecognizedToken(t *testing.T) {
	_, err := ParseV2Fetch([]string{"bogus-token"}, FetchOptions{})
	require.Error(t, err)
}

func TestParseV2FetchConflictingDeepen(t *testing.T) {
	_, err := ParseV2Fetch([]string{
		"deepen 3",
		"deepen-since 100",
	}, FetchOptions{})
	require.Error(t, err)
}

func TestParseV2FetchFilterNotAllowed(t *testing.T) {
	_, err := ParseV2Fetch([]string{"filter blob:none"}, FetchOptions{AllowFilter: false})
	require.Error(t, err)
}

func TestParseFilterSpecs(t *testing.T) {
	f, err := ParseFilter("blob:limit=5")
	require.NoError(t, err)
	assert.Equal(t, FilterBlobLimit, f.Kind)
	assert.EqualValues(t, 5, f.Limit)

	f, err = ParseFilter("tree:2")
	require.NoError(t, err)
	assert.Equal(t, FilterTreeDepth, f.Kind)
	assert.Equal(t, 2, f.Depth)

	f, err = ParseFilter("blob:none")
	require.NoError(t, err)
	assert.Equal(t, FilterBlobNone, f.Kind)

	_, err = ParseFilter("bogus")
	require.Error(t, err)
}
