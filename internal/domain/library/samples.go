package library

import "letternest/internal/domain/lesson"

// Samples is the built-in library used when the backend is not wanted.
func Samples() *Library {
	return &Library{
		Name: "LetterNest samples",
		Topics: []lesson.Topic{
			{
				ID:          1,
				Title:       "A is for Alligator",
				Letter:      "A",
				Theme:       "jungle",
				Description: "An alligator lives in the swamp. It snaps with strong jaws and swims with a long tail.",
				IsActive:    true,
				Media:       []lesson.Media{{ID: 1, TopicID: 1, Kind: lesson.MediaStory, Autoplay: true, AllowControls: true}},
			},
			{
				ID:          2,
				Title:       "B is for Blue Bird",
				Letter:      "B",
				Theme:       "forest",
				Description: "A blue bird sings at dawn. Its song is sweet and bright.",
				IsActive:    true,
			},
			{
				ID:          3,
				Title:       "C is for Coral Crab",
				Letter:      "C",
				Theme:       "ocean",
				Description: "A coral crab scuttles sideways. It hides between colorful reefs.",
				IsActive:    true,
				Media: []lesson.Media{{
					ID: 3, TopicID: 3, Kind: lesson.MediaYouTube,
					URL:      "https://www.youtube.com/watch?v=ysz5S6PUM-U",
					Autoplay: true, AllowControls: true,
				}},
			},
			{
				ID:          4,
				Title:       "D is for Dolphin",
				Letter:      "D",
				Theme:       "ocean",
				Description: "A dolphin jumps over the waves. It clicks and whistles to its friends.",
				IsActive:    true,
			},
			{
				ID:          5,
				Title:       "E is for Elephant",
				Letter:      "E",
				Theme:       "savanna",
				Description: "An elephant sprays water with its trunk. It flaps big ears to keep cool.",
				IsActive:    true,
			},
			{
				ID:          6,
				Title:       "F is for Fox",
				Letter:      "F",
				Theme:       "forest",
				Description: "The quick brown fox runs through the leaves. It curls its bushy tail to sleep.",
				IsActive:    true,
			},
		},
	}
}
