package internal

// Version is the deepledit release version
const Version = "0.3.0"
