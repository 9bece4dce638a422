package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

func (db *PgGameRoomRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgGameRoomRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgGameRoomRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgGameRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (join_code, access_mode, password_hash, owner_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) "+
			"RETURNING id, join_code, access_mode, owner_id, created_at, updated_at",
		params.JoinCode,
		params.AccessMode,
		params.PasswordHash,
		params.OwnerId,
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.JoinCode,
		&room.AccessMode,
		&room.OwnerId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO room_members (room_id, account_id, role, joined_at) VALUES ($1, $2, 'owner', $3)",
		room.Id,
		params.OwnerId,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func scanRoom(row *sql.Row) (Room, error) {
	var room Room
	err := row.Scan(
		&room.Id,
		&room.JoinCode,
		&room.AccessMode,
		&room.PasswordHash,
		&room.OwnerId,
		&room.RetiredAt,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	return room, err
}

func (db *PgGameRoomRepository) GetRoomById(roomId int) (Room, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT id, join_code, access_mode, password_hash, owner_id, retired_at, created_at, updated_at "+
			"FROM rooms WHERE id = $1 LIMIT 1",
		roomId,
	))
}

func (db *PgGameRoomRepository) GetRoomByJoinCode(joinCode string) (Room, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT id, join_code, access_mode, password_hash, owner_id, retired_at, created_at, updated_at "+
			"FROM rooms WHERE join_code = $1 AND retired_at IS NULL LIMIT 1",
		joinCode,
	))
}

func (db *PgGameRoomRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	query := `
		SELECT
				r.id,
				r.join_code,
				r.access_mode,
				r.owner_id,
				r.created_at,
				r.updated_at,
				m.account_id,
				a.username,
				m.role,
				m.joined_at
		FROM rooms r
		LEFT JOIN room_members m ON r.id = m.room_id
		LEFT JOIN accounts a ON m.account_id = a.id
		WHERE r.id = $1;
`

	rows, err := db.conn.Query(query, roomId)
	if err != nil {
		return nil, fmt.Errorf("fetch room with members: %w", err)
	}
	defer rows.Close()

	var room *Room
	for rows.Next() {
		var (
			id         int
			joinCode   string
			accessMode string
			ownerId    int
			createdAt  time.Time
			updatedAt  time.Time
			accountId  sql.NullInt64
			username   sql.NullString
			role       sql.NullString
			joinedAt   sql.NullTime
		)

		err := rows.Scan(
			&id,
			&joinCode,
			&accessMode,
			&ownerId,
			&createdAt,
			&updatedAt,
			&accountId,
			&username,
			&role,
			&joinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if room == nil {
			room = &Room{
				Id:         id,
				JoinCode:   joinCode,
				AccessMode: accessMode,
				OwnerId:    ownerId,
				CreatedAt:  createdAt,
				UpdatedAt:  updatedAt,
				Members:    make([]Member, 0),
			}
		}

		if accountId.Valid && username.Valid {
			room.Members = append(room.Members, Member{
				RoomId:   id,
				UserId:   int(accountId.Int64),
				Username: username.String,
				Role:     role.String,
				JoinedAt: joinedAt.Time,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if room == nil {
		return nil, sql.ErrNoRows
	}

	return room, nil
}

// RetireRoom marks the room retired and removes every membership. The caller
// is responsible for deleting the room's session.
func (db *PgGameRoomRepository) RetireRoom(roomId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("UPDATE rooms SET retired_at = $1, updated_at = $1 WHERE id = $2", time.Now().UTC(), roomId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM room_members WHERE room_id = $1", roomId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgGameRoomRepository) CreateMember(roomId, userId int, role string) (Member, error) {
	res := db.conn.QueryRow(
		"INSERT INTO room_members (room_id, account_id, role, joined_at) VALUES ($1, $2, $3, $4) "+
			"RETURNING room_id, account_id, role, joined_at",
		roomId,
		userId,
		role,
		time.Now().UTC(),
	)

	var m Member
	err := res.Scan(&m.RoomId, &m.UserId, &m.Role, &m.JoinedAt)
	return m, err
}

func (db *PgGameRoomRepository) GetMember(roomId, userId int) (Member, error) {
	row := db.conn.QueryRow(
		"SELECT m.room_id, m.account_id, a.username, m.role, m.joined_at FROM room_members m "+
			"JOIN accounts a ON m.account_id = a.id "+
			"WHERE m.room_id = $1 AND m.account_id = $2 LIMIT 1",
		roomId,
		userId,
	)

	var m Member
	err := row.Scan(&m.RoomId, &m.UserId, &m.Username, &m.Role, &m.JoinedAt)
	return m, err
}

func (db *PgGameRoomRepository) DeleteMember(roomId, userId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM room_members WHERE room_id = $1 AND account_id = $2",
		roomId,
		userId,
	)

	return err
}

func (db *PgGameRoomRepository) CountMembers(roomId int) (int, error) {
	row := db.conn.QueryRow("SELECT COUNT(*) FROM room_members WHERE room_id = $1", roomId)

	var count int
	err := row.Scan(&count)
	return count, err
}

func (db *PgGameRoomRepository) ListRoomsForUser(userId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT r.id, r.join_code, r.access_mode, r.owner_id, r.created_at, r.updated_at "+
			"FROM room_members m JOIN rooms r ON r.id = m.room_id "+
			"WHERE m.account_id = $1 AND r.retired_at IS NULL",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err = rows.Scan(&room.Id, &room.JoinCode, &room.AccessMode, &room.OwnerId, &room.CreatedAt, &room.UpdatedAt); err != nil {
			break
		}

		rooms = append(rooms, room)
	}
	return rooms, err
}

// BanUser removes the target's membership and records the ban in one
// transaction.
func (db *PgGameRoomRepository) BanUser(roomId, userId, bannedBy int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM room_members WHERE room_id = $1 AND account_id = $2", roomId, userId)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		"INSERT INTO room_bans (room_id, account_id, banned_by, banned_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (room_id, account_id) DO NOTHING",
		roomId,
		userId,
		bannedBy,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgGameRoomRepository) DeleteBan(roomId, userId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM room_bans WHERE room_id = $1 AND account_id = $2",
		roomId,
		userId,
	)

	return err
}

func (db *PgGameRoomRepository) IsBanned(roomId, userId int) bool {
	row := db.conn.QueryRow(
		"SELECT 1 FROM room_bans WHERE room_id = $1 AND account_id = $2 LIMIT 1",
		roomId,
		userId,
	)

	var one int
	return row.Scan(&one) == nil
}

func (db *PgGameRoomRepository) CreateInvitation(roomId, userId int) (Invitation, error) {
	res := db.conn.QueryRow(
		"INSERT INTO invitations (room_id, account_id, status, created_at, updated_at) "+
			"VALUES ($1, $2, 'pending', $3, $3) RETURNING id, room_id, account_id, status, created_at",
		roomId,
		userId,
		time.Now().UTC(),
	)

	var inv Invitation
	err := res.Scan(&inv.Id, &inv.RoomId, &inv.UserId, &inv.Status, &inv.CreatedAt)
	return inv, err
}

func (db *PgGameRoomRepository) GetInvitation(id int) (Invitation, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, account_id, status, created_at FROM invitations WHERE id = $1 LIMIT 1",
		id,
	)

	var inv Invitation
	err := row.Scan(&inv.Id, &inv.RoomId, &inv.UserId, &inv.Status, &inv.CreatedAt)
	return inv, err
}

func (db *PgGameRoomRepository) UpdateInvitationStatus(id int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE invitations SET status = $1, updated_at = $2 WHERE id = $3",
		status,
		time.Now().UTC(),
		id,
	)

	return err
}

func (db *PgGameRoomRepository) ListInvitationsForUser(userId int) ([]Invitation, error) {
	rows, err := db.conn.Query(
		"SELECT id, room_id, account_id, status, created_at FROM invitations "+
			"WHERE account_id = $1 AND status = 'pending'",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []Invitation
	for rows.Next() {
		var inv Invitation
		if err = rows.Scan(&inv.Id, &inv.RoomId, &inv.UserId, &inv.Status, &inv.CreatedAt); err != nil {
			break
		}

		invs = append(invs, inv)
	}
	return invs, err
}

func (db *PgGameRoomRepository) HasAcceptedInvitation(roomId, userId int) bool {
	row := db.conn.QueryRow(
		"SELECT 1 FROM invitations WHERE room_id = $1 AND account_id = $2 AND status = 'accepted' LIMIT 1",
		roomId,
		userId,
	)

	var one int
	return row.Scan(&one) == nil
}

func (db *PgGameRoomRepository) CreateJoinRequest(roomId, userId int) (JoinRequest, error) {
	res := db.conn.QueryRow(
		"INSERT INTO join_requests (room_id, account_id, status, created_at, updated_at) "+
			"VALUES ($1, $2, 'pending', $3, $3) RETURNING id, room_id, account_id, status, created_at",
		roomId,
		userId,
		time.Now().UTC(),
	)

	var jr JoinRequest
	err := res.Scan(&jr.Id, &jr.RoomId, &jr.UserId, &jr.Status, &jr.CreatedAt)
	return jr, err
}

func (db *PgGameRoomRepository) GetJoinRequest(id int) (JoinRequest, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, account_id, status, created_at FROM join_requests WHERE id = $1 LIMIT 1",
		id,
	)

	var jr JoinRequest
	err := row.Scan(&jr.Id, &jr.RoomId, &jr.UserId, &jr.Status, &jr.CreatedAt)
	return jr, err
}

func (db *PgGameRoomRepository) UpdateJoinRequestStatus(id int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE join_requests SET status = $1, updated_at = $2 WHERE id = $3",
		status,
		time.Now().UTC(),
		id,
	)

	return err
}

func (db *PgGameRoomRepository) ListJoinRequestsForRoom(roomId int) ([]JoinRequest, error) {
	rows, err := db.conn.Query(
		"SELECT j.id, j.room_id, j.account_id, a.username, j.status, j.created_at "+
			"FROM join_requests j JOIN accounts a ON j.account_id = a.id "+
			"WHERE j.room_id = $1 AND j.status = 'pending'",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []JoinRequest
	for rows.Next() {
		var jr JoinRequest
		if err = rows.Scan(&jr.Id, &jr.RoomId, &jr.UserId, &jr.Username, &jr.Status, &jr.CreatedAt); err != nil {
			break
		}

		reqs = append(reqs, jr)
	}
	return reqs, err
}

func (db *PgGameRoomRepository) CreatePlayer(params CreatePlayerParams) (Player, error) {
	res := db.conn.QueryRow(
		"INSERT INTO players (id, owner_id, display_name, emoji, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, owner_id, display_name, emoji, created_at",
		params.Id,
		params.OwnerId,
		params.DisplayName,
		params.Emoji,
		time.Now().UTC(),
	)

	var p Player
	err := res.Scan(&p.Id, &p.OwnerId, &p.DisplayName, &p.Emoji, &p.CreatedAt)
	return p, err
}

func (db *PgGameRoomRepository) GetPlayer(id string) (Player, error) {
	row := db.conn.QueryRow(
		"SELECT id, owner_id, display_name, emoji, created_at FROM players WHERE id = $1 LIMIT 1",
		id,
	)

	var p Player
	err := row.Scan(&p.Id, &p.OwnerId, &p.DisplayName, &p.Emoji, &p.CreatedAt)
	return p, err
}

func (db *PgGameRoomRepository) ListPlayersForUser(ownerId int) ([]Player, error) {
	rows, err := db.conn.Query(
		"SELECT id, owner_id, display_name, emoji, created_at FROM players WHERE owner_id = $1 ORDER BY created_at",
		ownerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err = rows.Scan(&p.Id, &p.OwnerId, &p.DisplayName, &p.Emoji, &p.CreatedAt); err != nil {
			break
		}

		players = append(players, p)
	}
	return players, err
}

func (db *PgGameRoomRepository) DeletePlayer(id string) error {
	_, err := db.conn.Exec("DELETE FROM players WHERE id = $1", id)
	return err
}

// PlayerSeated reports whether the player is currently seated in any live
// session, using jsonb containment on active_players.
func (db *PgGameRoomRepository) PlayerSeated(id string) bool {
	raw, err := json.Marshal([]string{id})
	if err != nil {
		return false
	}

	var seated bool
	err = db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM sessions WHERE deleted_at IS NULL AND active_players @> $1)",
		raw,
	).Scan(&seated)

	return err == nil && seated
}

// EnsureSession inserts a session row for the room if none exists. The partial
// unique index on sessions(room_id) makes concurrent callers race safely: the
// loser's insert is a no-op and both read back the same row.
func (db *PgGameRoomRepository) EnsureSession(roomId int) (Session, error) {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (room_id, created_at, updated_at) VALUES ($1, $2, $2) "+
			"ON CONFLICT (room_id) WHERE deleted_at IS NULL DO NOTHING",
		roomId,
		time.Now().UTC(),
	)
	if err != nil {
		return Session{}, err
	}

	return db.GetSessionByRoomId(roomId)
}

func (db *PgGameRoomRepository) GetSessionByRoomId(roomId int) (Session, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, game_name, config, active_players, status, paused_at, created_at, updated_at "+
			"FROM sessions WHERE room_id = $1 AND deleted_at IS NULL LIMIT 1",
		roomId,
	)

	var (
		s          Session
		config     []byte
		playersRaw []byte
	)
	err := row.Scan(&s.Id, &s.RoomId, &s.GameName, &config, &playersRaw, &s.Status, &s.PausedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Session{}, err
	}

	s.Config = config
	if err := json.Unmarshal(playersRaw, &s.ActivePlayers); err != nil {
		return Session{}, fmt.Errorf("decode active players: %w", err)
	}

	return s, nil
}

func (db *PgGameRoomRepository) UpdateSessionGame(sessionId int, gameName string, config json.RawMessage) error {
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := db.conn.Exec(
		"UPDATE sessions SET game_name = $1, config = $2, updated_at = $3 WHERE id = $4",
		gameName,
		[]byte(config),
		time.Now().UTC(),
		sessionId,
	)

	return err
}

func (db *PgGameRoomRepository) UpdateSessionConfig(sessionId int, config json.RawMessage) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET config = $1, updated_at = $2 WHERE id = $3",
		[]byte(config),
		time.Now().UTC(),
		sessionId,
	)

	return err
}

func (db *PgGameRoomRepository) UpdateSessionPlayers(sessionId int, players []string) error {
	if players == nil {
		players = []string{}
	}

	raw, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("encode active players: %w", err)
	}

	_, err = db.conn.Exec(
		"UPDATE sessions SET active_players = $1, updated_at = $2 WHERE id = $3",
		raw,
		time.Now().UTC(),
		sessionId,
	)

	return err
}

func (db *PgGameRoomRepository) UpdateSessionStatus(sessionId int, status string) error {
	var pausedAt any
	if status == "paused" {
		pausedAt = time.Now().UTC()
	}

	_, err := db.conn.Exec(
		"UPDATE sessions SET status = $1, paused_at = $2, updated_at = $3 WHERE id = $4",
		status,
		pausedAt,
		time.Now().UTC(),
		sessionId,
	)

	return err
}

func (db *PgGameRoomRepository) DeleteSession(sessionId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM snapshots WHERE session_id = $1", sessionId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("UPDATE sessions SET deleted_at = $1, updated_at = $1 WHERE id = $2", time.Now().UTC(), sessionId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgGameRoomRepository) SaveSnapshot(snap Snapshot) error {
	_, err := db.conn.Exec(
		"INSERT INTO snapshots (session_id, game_name, state, seq, updated_at) VALUES ($1, $2, $3, $4, $5) "+
			"ON CONFLICT (session_id) DO UPDATE SET game_name = $2, state = $3, seq = $4, updated_at = $5",
		snap.SessionId,
		snap.GameName,
		[]byte(snap.State),
		snap.Seq,
		time.Now().UTC(),
	)

	return err
}

func (db *PgGameRoomRepository) GetSnapshot(sessionId int) (Snapshot, error) {
	row := db.conn.QueryRow(
		"SELECT session_id, game_name, state, seq, updated_at FROM snapshots WHERE session_id = $1 LIMIT 1",
		sessionId,
	)

	var (
		snap  Snapshot
		state []byte
	)
	err := row.Scan(&snap.SessionId, &snap.GameName, &state, &snap.Seq, &snap.UpdatedAt)
	snap.State = state

	return snap, err
}

func (db *PgGameRoomRepository) DeleteSnapshot(sessionId int) error {
	_, err := db.conn.Exec("DELETE FROM snapshots WHERE session_id = $1", sessionId)
	return err
}
