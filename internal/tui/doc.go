/*
Package tui is the terminal front end of the clicker.

It has three views:

  - welcome: first-run explanation, shown until dismissed
  - connect: address input plus the recent hosts list
  - main: the ON/OFF button with connection status

Connection events and toggle resets arrive from other goroutines through a
Bridge, which forwards them to the running program in order.
*/
package tui
