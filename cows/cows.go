// Package cows implements Consistent Overhead Word Stuffing, a
// word-oriented variant of COBS. It removes all zero words from a buffer
// except word 0, which carries the distance to the first zero, so that a
// single zero word can be used as an unambiguous frame delimiter on the
// wire.
package cows

import "fmt"

// Stuff removes all interior zero words from buf[1:n], replacing each with
// the distance to the next zero word (or to one-past-the-end). buf[0] is
// overwritten with the distance to the first zero. n is a word count;
// len(buf) must be at least n words (2*n bytes).
func Stuff(buf []uint16, n int) error {
	if n < 1 {
		return fmt.Errorf("cows: stuff requires n_words >= 1, got %d", n)
	}
	if len(buf) < n {
		return fmt.Errorf("cows: buffer too short: have %d words, need %d", len(buf), n)
	}
	lastZero := n
	for i := n - 1; i >= 1; i-- {
		if buf[i] == 0 {
			buf[i] = uint16(lastZero - i)
			lastZero = i
		}
	}
	buf[0] = uint16(lastZero - 1)
	return nil
}

// Unstuff is the inverse of Stuff: it restores the zero words in
// buf[1:n] that Stuff removed, following the chain of distances that
// starts at buf[0].
func Unstuff(buf []uint16, n int) error {
	if len(buf) < n {
		return fmt.Errorf("cows: buffer too short: have %d words, need %d", len(buf), n)
	}
	next := 1 + int(buf[0])
	for next < n {
		delta := buf[next]
		buf[next] = 0
		next += int(delta)
	}
	return nil
}

// StuffBytes and UnstuffBytes adapt the word-oriented algorithm to a
// little-endian byte buffer whose length is an even number of bytes, which
// is the form the transport layer actually holds frames in.
func StuffBytes(buf []byte, nWords int) error {
	words, err := bytesToWords(buf, nWords)
	if err != nil {
		return err
	}
	if err := Stuff(words, nWords); err != nil {
		return err
	}
	wordsToBytes(words, buf, nWords)
	return nil
}

func UnstuffBytes(buf []byte, nWords int) error {
	words, err := bytesToWords(buf, nWords)
	if err != nil {
		return err
	}
	if err := Unstuff(words, nWords); err != nil {
		return err
	}
	wordsToBytes(words, buf, nWords)
	return nil
}

func bytesToWords(buf []byte, nWords int) ([]uint16, error) {
	if len(buf) < nWords*2 {
		return nil, fmt.Errorf("cows: byte buffer too short: have %d bytes, need %d", len(buf), nWords*2)
	}
	words := make([]uint16, nWords)
	for i := 0; i < nWords; i++ {
		words[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
	}
	return words, nil
}

func wordsToBytes(words []uint16, buf []byte, nWords int) {
	for i := 0; i < nWords; i++ {
		buf[2*i] = byte(words[i])
		buf[2*i+1] = byte(words[i] >> 8)
	}
}
