package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "campustrades/internal/domain/chat"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection("conversations")}
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationGone
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) ByParticipant(ctx context.Context, userID string) ([]*domainchat.Conversation, error) {
	filter := bson.M{"$or": bson.A{bson.M{"buyer_id": userID}, bson.M{"seller_id": userID}}}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainchat.Conversation, 0)
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *ConversationRepository) ByAnchor(ctx context.Context, anchor domainchat.Anchor) (*domainchat.Conversation, error) {
	filter := bson.M{
		"buyer_id":        anchor.BuyerID,
		"seller_id":       anchor.SellerID,
		"product_id":      anchor.ProductID,
		"item_request_id": anchor.ItemRequestID,
	}
	var doc conversationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationGone
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) Save(ctx context.Context, conv *domainchat.Conversation) error {
	doc := newConversationDocument(conv)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ConversationRepository) Delete(ctx context.Context, id domainchat.ConversationID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

type conversationDocument struct {
	ID            string `bson:"_id"`
	BuyerID       string `bson:"buyer_id"`
	SellerID      string `bson:"seller_id"`
	ProductID     string `bson:"product_id"`
	ItemRequestID string `bson:"item_request_id"`
	LastMessageAt int64  `bson:"last_message_at"`
	CreatedAt     int64  `bson:"created_at"`
}

func newConversationDocument(conv *domainchat.Conversation) conversationDocument {
	doc := conversationDocument{
		ID:            string(conv.ID),
		BuyerID:       conv.BuyerID,
		SellerID:      conv.SellerID,
		ProductID:     conv.ProductID,
		ItemRequestID: conv.ItemRequestID,
		CreatedAt:     conv.CreatedAt.UnixMilli(),
	}
	if !conv.LastMessageAt.IsZero() {
		doc.LastMessageAt = conv.LastMessageAt.UnixMilli()
	}
	return doc
}

func (d conversationDocument) toAggregate() *domainchat.Conversation {
	conv := &domainchat.Conversation{
		ID:            domainchat.ConversationID(d.ID),
		BuyerID:       d.BuyerID,
		SellerID:      d.SellerID,
		ProductID:     d.ProductID,
		ItemRequestID: d.ItemRequestID,
		CreatedAt:     timestampToTime(d.CreatedAt),
	}
	if d.LastMessageAt > 0 {
		conv.LastMessageAt = timestampToTime(d.LastMessageAt)
	}
	return conv
}

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

func (r *MessageRepository) ListByConversation(ctx context.Context, id domainchat.ConversationID) ([]*domainchat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"conversation_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainchat.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *MessageRepository) LastByConversation(ctx context.Context, id domainchat.ConversationID) (*domainchat.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc messageDocument
	if err := r.col.FindOne(ctx, bson.M{"conversation_id": string(id)}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *MessageRepository) Append(ctx context.Context, msg *domainchat.Message) error {
	_, err := r.col.InsertOne(ctx, newMessageDocument(msg))
	return err
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, id domainchat.ConversationID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"conversation_id": string(id)})
	return err
}

type messageDocument struct {
	ID             string `bson:"_id"`
	ConversationID string `bson:"conversation_id"`
	SenderID       string `bson:"sender_id"`
	Content        string `bson:"content"`
	CreatedAt      int64  `bson:"created_at"`
}

func newMessageDocument(msg *domainchat.Message) messageDocument {
	return messageDocument{
		ID:             string(msg.ID),
		ConversationID: string(msg.ConversationID),
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toAggregate() *domainchat.Message {
	return &domainchat.Message{
		ID:             domainchat.MessageID(d.ID),
		ConversationID: domainchat.ConversationID(d.ConversationID),
		SenderID:       d.SenderID,
		Content:        d.Content,
		CreatedAt:      timestampToTime(d.CreatedAt),
	}
}

type ParticipantStateRepository struct {
	col *mongo.Collection
}

func NewParticipantStateRepository(db *mongo.Database) *ParticipantStateRepository {
	return &ParticipantStateRepository{col: db.Collection("conversation_participants")}
}

func (r *ParticipantStateRepository) Get(ctx context.Context, id domainchat.ConversationID, userID string) (*domainchat.ParticipantState, error) {
	var doc participantDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": participantDocID(id, userID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrNotParticipant
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ParticipantStateRepository) ForUser(ctx context.Context, userID string) (map[domainchat.ConversationID]*domainchat.ParticipantState, error) {
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[domainchat.ConversationID]*domainchat.ParticipantState)
	for cursor.Next(ctx) {
		var doc participantDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		state := doc.toAggregate()
		out[state.ConversationID] = state
	}
	return out, cursor.Err()
}

func (r *ParticipantStateRepository) Save(ctx context.Context, state *domainchat.ParticipantState) error {
	doc := newParticipantDocument(state)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ParticipantStateRepository) SetFlag(ctx context.Context, id domainchat.ConversationID, userID string, flag domainchat.Flag, value bool) error {
	field, err := flagField(flag)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UnixMilli()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": participantDocID(id, userID)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainchat.ErrNotParticipant
	}
	return nil
}

// ToggleFlag flips the stored flag server-side with a pipeline update so
// concurrent toggles never lose writes, then returns the new value.
func (r *ParticipantStateRepository) ToggleFlag(ctx context.Context, id domainchat.ConversationID, userID string, flag domainchat.Flag) (bool, error) {
	field, err := flagField(flag)
	if err != nil {
		return false, err
	}
	pipeline := bson.A{bson.M{"$set": bson.M{
		field:        bson.M{"$not": "$" + field},
		"updated_at": time.Now().UnixMilli(),
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc participantDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": participantDocID(id, userID)}, pipeline, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, domainchat.ErrNotParticipant
		}
		return false, err
	}
	return doc.toAggregate().Value(flag), nil
}

func (r *ParticipantStateRepository) DeleteByConversation(ctx context.Context, id domainchat.ConversationID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"conversation_id": string(id)})
	return err
}

var errUnknownFlag = errors.New("mongo: unknown participant flag")

func flagField(flag domainchat.Flag) (string, error) {
	switch flag {
	case domainchat.FlagUnread:
		return "unread", nil
	case domainchat.FlagImportant:
		return "important", nil
	default:
		return "", errUnknownFlag
	}
}

type participantDocument struct {
	ID             string `bson:"_id"`
	ConversationID string `bson:"conversation_id"`
	UserID         string `bson:"user_id"`
	Unread         bool   `bson:"unread"`
	Important      bool   `bson:"important"`
	UpdatedAt      int64  `bson:"updated_at"`
}

func participantDocID(id domainchat.ConversationID, userID string) string {
	return string(id) + ":" + userID
}

func newParticipantDocument(state *domainchat.ParticipantState) participantDocument {
	return participantDocument{
		ID:             participantDocID(state.ConversationID, state.UserID),
		ConversationID: string(state.ConversationID),
		UserID:         state.UserID,
		Unread:         state.Unread,
		Important:      state.Important,
		UpdatedAt:      state.UpdatedAt.UnixMilli(),
	}
}

func (d participantDocument) toAggregate() *domainchat.ParticipantState {
	return &domainchat.ParticipantState{
		ConversationID: domainchat.ConversationID(d.ConversationID),
		UserID:         d.UserID,
		Unread:         d.Unread,
		Important:      d.Important,
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
