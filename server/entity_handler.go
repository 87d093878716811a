package server

import (
	"cmp"
	"net/http"
	"slices"

	"Atlas/model"
)

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		a, err := s.deps.Cart.GetArtistByName(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []model.Artist{a})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Cart.Artists())
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	a, err := s.deps.Cart.GetArtist(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	artist, filter, err := queryID(r, "artist")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	albums := s.deps.Cart.Albums()
	if filter {
		albums = slices.DeleteFunc(albums, func(a model.Album) bool { return a.ArtistID != artist })
	}
	writeJSON(w, http.StatusOK, albums)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	al, err := s.deps.Cart.GetAlbum(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	album, byAlbum, err := queryID(r, "album")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	artist, byArtist, err := queryID(r, "artist")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	tracks := s.deps.Cart.Tracks()
	tracks = slices.DeleteFunc(tracks, func(t model.Track) bool {
		return (byAlbum && t.AlbumID != album) || (byArtist && t.ArtistID != artist)
	})
	if byAlbum {
		sortAlbumTracks(tracks)
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	t, err := s.deps.Cart.GetTrack(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTrackPath(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	t, err := s.deps.Cart.GetTrack(id)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := s.deps.Libraries.ResolveTrackPath(t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// sortAlbumTracks orders by disc, then position, then title.
func sortAlbumTracks(tracks []model.Track) {
	slices.SortStableFunc(tracks, func(a, b model.Track) int {
		return cmp.Or(
			cmp.Compare(a.Disc, b.Disc),
			cmp.Compare(a.Position, b.Position),
			cmp.Compare(a.Title, b.Title),
		)
	})
}

// albumTrackIDs returns the album's tracks in playing order.
func (s *Server) albumTrackIDs(albumID model.ID) ([]model.ID, error) {
	al, err := s.deps.Cart.GetAlbum(albumID)
	if err != nil {
		return nil, err
	}
	tracks := make([]model.Track, 0, len(al.Tracks))
	for _, id := range al.Tracks {
		if t, err := s.deps.Cart.GetTrack(id); err == nil {
			tracks = append(tracks, t)
		}
	}
	sortAlbumTracks(tracks)
	ids := make([]model.ID, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids, nil
}
