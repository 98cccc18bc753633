package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountName(t *testing.T) {
	testCases := []struct {
		email string
		want  string
	}{
		{email: "carol@x.com", want: "carol"},
		{email: "carol.smith@x.com", want: "carol.smith"},
		{email: "c+tag@x.com", want: "ctag"},
		{email: "a.very.long.local.part.beyond@x.com", want: "a.very.long.local.pa"},
		{email: ".dots.@x.com", want: "dots"},
		{email: "ab" + strings.Repeat(".", 19) + "z@x.com", want: "ab"},
		{email: "+++@x.com", want: "user"},
		{email: "@x.com", want: "user"},
		{email: "no-at-sign", want: "no-at-sign"},
		{email: "jörg@x.com", want: "jrg"},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			got := AccountName(tc.email)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), 20)
			assert.False(t, strings.HasPrefix(got, ".") || strings.HasSuffix(got, "."))
		})
	}
}

func TestSplitName(t *testing.T) {
	testCases := []struct {
		name      string
		given, sn string
	}{
		{name: "Ann", given: "Ann"},
		{name: "Ann Smith", given: "Ann", sn: "Smith"},
		{name: "Ann  Marie   van Smith", given: "Ann", sn: "Marie van Smith"},
		{name: "", given: ""},
	}

	for _, tc := range testCases {
		given, sn := SplitName(tc.name)
		assert.Equal(t, tc.given, given, tc.name)
		assert.Equal(t, tc.sn, sn, tc.name)
	}

	n := NewAccount{Name: "Carol Ann Jones"}
	assert.Equal(t, "Carol", n.GivenName())
	assert.Equal(t, "Ann Jones", n.Surname())
}

func TestAccountDisplayName(t *testing.T) {
	var nilAccount *Account
	assert.Equal(t, "bob@x.com", nilAccount.Name("bob@x.com"))
	assert.Equal(t, "Bob", (&Account{DisplayName: "Bob", CommonName: "bob"}).Name("bob@x.com"))
	assert.Equal(t, "bob", (&Account{CommonName: "bob"}).Name("bob@x.com"))
	assert.Equal(t, "bob@x.com", (&Account{}).Name("bob@x.com"))
}
