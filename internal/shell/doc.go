// Package shell knows just enough about the user's shell to tell them how to
// put the install directory on PATH.
//
// The shell is taken from $SHELL (passed in, never read here). Supported
// shells and their rc files:
//   - bash: ~/.bashrc
//   - zsh: ~/.zshrc
//   - fish: ~/.config/fish/config.fish
//
// Nothing in this package modifies rc files; it only reads them to check
// whether a PATH line is already present.
package shell
