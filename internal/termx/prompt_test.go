package termx

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(entries ...string) PasswordReader {
	i := 0
	return func(int) ([]byte, error) {
		if i >= len(entries) {
			return nil, errors.New("no more input")
		}
		pw := []byte(entries[i])
		i++
		return pw, nil
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "trims", input: "  hello world \n", want: "hello world"},
		{name: "last line without newline", input: "lastline", want: "lastline"},
		{name: "empty input", input: "", wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Line("name: ")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "name: ", out.String())
		})
	}
}

func TestAsk_SharesReaderAcrossCalls(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("alice\nalice@example.com\n"), &out)

	name, err := p.Ask("Enter user name")
	require.NoError(t, err)
	email, err := p.Ask("Enter email")
	require.NoError(t, err)

	assert.Equal(t, "alice", name)
	assert.Equal(t, "alice@example.com", email)
	assert.Equal(t, "Enter user name\n> Enter email\n> ", out.String())
}

func TestPassword(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out).WithPasswordReader(scripted("s3cret"))

	pw, err := p.Password("pw: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "pw: \n", out.String())
}

func TestPassword_Error(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out).WithPasswordReader(func(int) ([]byte, error) {
		return nil, errors.New("boom")
	})

	_, err := p.Password("pw: ")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "pw: \n", out.String())
}

func TestNewPassword(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(""), &out).WithPasswordReader(scripted("pw", "pw"))

		pw, err := p.NewPassword()
		require.NoError(t, err)
		assert.Equal(t, "pw", string(pw))
		assert.Equal(t, "Enter password: \nRepeat password: \n", out.String())
	})

	t.Run("mismatch wipes first entry", func(t *testing.T) {
		first := []byte("one")
		calls := 0
		p := NewPrompter(strings.NewReader(""), io.Discard).WithPasswordReader(func(int) ([]byte, error) {
			calls++
			if calls == 1 {
				return first, nil
			}
			return []byte("two"), nil
		})

		_, err := p.NewPassword()
		require.ErrorIs(t, err, ErrPasswordMismatch)
		assert.Equal(t, []byte{0, 0, 0}, first)
	})

	t.Run("confirmation fails", func(t *testing.T) {
		p := NewPrompter(strings.NewReader(""), io.Discard).WithPasswordReader(scripted("pw"))

		_, err := p.NewPassword()
		assert.EqualError(t, err, "no more input")
	})
}
