package instance

import "github.com/angelmondragon/vidrobox-backend/pkg/env"

// GetID identifies the running process in logs. Explicit ids win over the
// platform dyno name and the container hostname.
func GetID() string {
	for _, key := range []string{"VIDROBOX_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
