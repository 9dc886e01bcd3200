package internal

// Version is the current storybuddy release.
const Version = "0.3.0"
