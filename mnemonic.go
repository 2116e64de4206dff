package main

import (
	"fmt"
	"strings"
	"sync"

	bip39 "github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
)

// Defaults for mnemonic generation, matching what wallet provisioning asks
// for when the caller does not care.
const (
	DefaultMnemonicStrength = 256
	DefaultMnemonicLanguage = "english"
)

var mnemonicWordLists = map[string][]string{
	"english":             wordlists.English,
	"spanish":             wordlists.Spanish,
	"french":              wordlists.French,
	"italian":             wordlists.Italian,
	"japanese":            wordlists.Japanese,
	"korean":              wordlists.Korean,
	"czech":               wordlists.Czech,
	"chinese_simplified":  wordlists.ChineseSimplified,
	"chinese_traditional": wordlists.ChineseTraditional,
}

// bip39 keeps the active word list in package state, so generation is
// serialized and the list restored afterwards.
var mnemonicMu sync.Mutex

// GenerateMnemonic returns a mnemonic phrase of the given strength (in
// bits, a multiple of 32 between 128 and 256) in the given language.
// Zero values select the defaults. This is the whole mnemonic boundary:
// derivation and storage of the resulting seed happen elsewhere.
func GenerateMnemonic(strength int, language string) (string, error) {
	if strength == 0 {
		strength = DefaultMnemonicStrength
	}
	if language == "" {
		language = DefaultMnemonicLanguage
	}

	words, ok := mnemonicWordLists[strings.ToLower(language)]
	if !ok {
		return "", fmt.Errorf("unsupported mnemonic language %q", language)
	}

	mnemonicMu.Lock()
	defer mnemonicMu.Unlock()

	bip39.SetWordList(words)
	defer bip39.SetWordList(wordlists.English)

	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", fmt.Errorf("invalid mnemonic strength %d: %w", strength, err)
	}
	return bip39.NewMnemonic(entropy)
}
