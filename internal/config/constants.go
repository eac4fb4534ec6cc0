package config

// DefaultDatabasePath is the default path for the application database.
// The task queue keeps its own database next to it.
const DefaultDatabasePath = "./zenreader.db"

// DefaultPort is the HTTP port when PORT is unset.
const DefaultPort = 8190
