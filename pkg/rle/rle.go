// Package rle implements the acceleratorinator's run-length wire codec.
//
// The stream is a sequence of blocks, each starting with a header byte laid
// out as (count-1)<<2 | blockSize. A blockSize of 0 marks a literal run: the
// next count bytes are copied verbatim. A blockSize of 1 to 3 marks a
// repeated run: the next blockSize bytes repeat count times. The header
// stores count-1 in six bits, so a single block covers at most 64 repeats.
package rle

import (
	"bytes"
	"fmt"
)

const (
	// maxLiteralRun bounds a single literal block on encode.
	maxLiteralRun = 32
	// maxRepeats bounds a repeated run so the count fits the header field.
	maxRepeats = 64
)

// Encode compresses input. Every position picks the cheapest of a literal
// run or a 1, 2 or 3 byte repeated run by output-to-input ratio, with
// literals winning ties.
func Encode(input []byte) []byte {
	var output []byte

	for len(input) > 0 {
		literalLen := len(input)
		if literalLen > maxLiteralRun {
			literalLen = maxLiteralRun
		}

		bestSize := 0
		bestRepeats := 0
		bestCost := cost(literalLen+1, literalLen)
		for blockSize := 1; blockSize <= 3; blockSize++ {
			repeats := countRepeats(input, blockSize)
			if repeats == 0 {
				continue
			}
			if c := cost(blockSize+1, blockSize*repeats); c < bestCost {
				bestCost = c
				bestSize = blockSize
				bestRepeats = repeats
			}
		}

		if bestSize == 0 {
			output = append(output, header(literalLen, 0))
			output = append(output, input[:literalLen]...)
			input = input[literalLen:]
		} else {
			output = append(output, header(bestRepeats, bestSize))
			output = append(output, input[:bestSize]...)
			input = input[bestRepeats*bestSize:]
		}
	}

	return output
}

// Decode expands a stream produced by Encode (or by the accessory, which
// emits the same format). It fails on a truncated stream.
func Decode(input []byte) ([]byte, error) {
	var output []byte

	for len(input) > 0 {
		h := input[0]
		blockSize := int(h & 0x03)
		count := int(h>>2) + 1

		if blockSize == 0 {
			if len(input) < 1+count {
				return nil, fmt.Errorf("literal run of %d bytes truncated at %d", count, len(input)-1)
			}
			output = append(output, input[1:1+count]...)
			input = input[1+count:]
		} else {
			if len(input) < 1+blockSize {
				return nil, fmt.Errorf("repeated run block truncated at %d", len(input)-1)
			}
			for i := 0; i < count; i++ {
				output = append(output, input[1:1+blockSize]...)
			}
			input = input[1+blockSize:]
		}
	}

	return output, nil
}

func header(count, blockSize int) byte {
	return byte((count-1)<<2 | blockSize)
}

// countRepeats counts how many consecutive copies of the leading blockSize
// bytes start the input, capped so the count fits the header.
func countRepeats(input []byte, blockSize int) int {
	if len(input) < blockSize {
		return 0
	}
	first := input[:blockSize]
	repeats := 0
	for repeats < maxRepeats {
		off := repeats * blockSize
		if off+blockSize > len(input) || !bytes.Equal(input[off:off+blockSize], first) {
			break
		}
		repeats++
	}
	return repeats
}

// cost is the scaled output/input size ratio of a candidate block.
func cost(outputSize, inputSize int) int {
	return 1000 * outputSize / inputSize
}
