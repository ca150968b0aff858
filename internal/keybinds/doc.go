/*
Package keybinds maps keys to clicker actions per view.

# Contexts

  - global: bindings available in every view (quit, force quit)
  - welcome: the first-run screen
  - connect: the address input and the recent-hosts list
  - main: the toggle button screen

A key bound in a view shadows the same key in global.

# Configuration

Users override bindings in ~/.clicker/keybinds.json. The file is JSON with
comments and maps each action to a comma-separated key list:

	{
	  // space is the default toggle key
	  "main": { "toggle": "space,enter,t" }
	}

Listing an action replaces its default keys in that context.
*/
package keybinds
