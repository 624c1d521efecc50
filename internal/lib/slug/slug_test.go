package slug

import (
	"bytes"
	"crypto/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title string
		want  string
	}{
		{title: "Tech Conference 2024!", want: "tech-conference-2024"},
		{title: "  Go   Meetup  ", want: "go-meetup"},
		{title: "Café & Déjà-Vu", want: "cafe-and-deja-vu"},
		{title: "Rock'n'Roll Night", want: "rocknroll-night"},
		{title: "München Straßenfest", want: "munchen-strassenfest"},
		{title: "Привет, мир", want: "privet-mir"},
		{title: "a -- b__c", want: "a-bc"},
		{title: "---Launch---", want: "launch"},
		{title: "Price: 100% off", want: "price-100percent-off"},
		{title: "Naïve\tRésumé\nWorkshop", want: "naive-resume-workshop"},
		{title: "!!!", want: ""},
		{title: "演唱会", want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, Make(tc.title))
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	t.Parallel()

	titles := []string{"Tech Conference 2024!", "Café & Déjà-Vu", "Привет, мир", ""}
	for _, title := range titles {
		assert.Equal(t, Make(title), Make(title))
	}
}

func TestMakeOutputIsURLSafe(t *testing.T) {
	t.Parallel()

	safe := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	titles := []string{"Hello, World", "x & y | z", " - - ", "Ünïcödé ✓ test", "2024/25 Season"}

	for _, title := range titles {
		assert.Regexp(t, safe, Make(title), title)
	}
}

func TestSuffix(t *testing.T) {
	t.Parallel()

	s, err := Suffix(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x01}))
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", s)

	s, err = Suffix(rand.Reader)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{8}$`, s)

	_, err = Suffix(bytes.NewReader([]byte{1, 2}))
	require.Error(t, err)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "my-event-0a1b2c3d", Join("my-event", "0a1b2c3d"))
}
