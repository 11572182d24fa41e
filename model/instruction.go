package model

import (
	"encoding/json"
	"fmt"
)

// InstructionKind is the discriminator of a parsed manifest instruction.
type InstructionKind string

const (
	InstructionCallFunction                  InstructionKind = "CALL_FUNCTION"
	InstructionCallMethod                    InstructionKind = "CALL_METHOD"
	InstructionTakeFromWorktop               InstructionKind = "TAKE_FROM_WORKTOP"
	InstructionTakeFromWorktopByAmount       InstructionKind = "TAKE_FROM_WORKTOP_BY_AMOUNT"
	InstructionReturnToWorktop               InstructionKind = "RETURN_TO_WORKTOP"
	InstructionAssertWorktopContains         InstructionKind = "ASSERT_WORKTOP_CONTAINS"
	InstructionAssertWorktopContainsByAmount InstructionKind = "ASSERT_WORKTOP_CONTAINS_BY_AMOUNT"
	InstructionPopFromAuthZone               InstructionKind = "POP_FROM_AUTH_ZONE"
	InstructionPushToAuthZone                InstructionKind = "PUSH_TO_AUTH_ZONE"
	InstructionClearAuthZone                 InstructionKind = "CLEAR_AUTH_ZONE"
	InstructionCreateProofFromAuthZone       InstructionKind = "CREATE_PROOF_FROM_AUTH_ZONE"
	InstructionCreateProofFromBucket         InstructionKind = "CREATE_PROOF_FROM_BUCKET"
	InstructionDropProof                     InstructionKind = "DROP_PROOF"
	InstructionDropAllProofs                 InstructionKind = "DROP_ALL_PROOFS"
	InstructionPublishPackage                InstructionKind = "PUBLISH_PACKAGE"
	InstructionBurnResource                  InstructionKind = "BURN_RESOURCE"
	InstructionMintFungible                  InstructionKind = "MINT_FUNGIBLE"
	InstructionSetMetadata                   InstructionKind = "SET_METADATA"
	InstructionSetMethodAccessRule           InstructionKind = "SET_METHOD_ACCESS_RULE"
	InstructionSetComponentRoyaltyConfig     InstructionKind = "SET_COMPONENT_ROYALTY_CONFIG"
	InstructionClaimComponentRoyalty         InstructionKind = "CLAIM_COMPONENT_ROYALTY"
	InstructionCreateAccessController        InstructionKind = "CREATE_ACCESS_CONTROLLER"
)

const instructionKey = "instruction"

// Instruction is one parsed manifest instruction. The set of implementations
// is closed.
type Instruction interface {
	InstructionKind() InstructionKind
}

type CallFunction struct {
	PackageAddress PackageAddress `json:"package_address"`
	BlueprintName  String         `json:"blueprint_name"`
	FunctionName   String         `json:"function_name"`
	Arguments      Values         `json:"arguments,omitempty"`
}

type CallMethod struct {
	ComponentAddress ComponentAddress `json:"component_address"`
	MethodName       String           `json:"method_name"`
	Arguments        Values           `json:"arguments,omitempty"`
}

type TakeFromWorktop struct {
	ResourceAddress ResourceAddress `json:"resource_address"`
	IntoBucket      Bucket          `json:"into_bucket"`
}

type TakeFromWorktopByAmount struct {
	Amount          Decimal         `json:"amount"`
	ResourceAddress ResourceAddress `json:"resource_address"`
	IntoBucket      Bucket          `json:"into_bucket"`
}

type ReturnToWorktop struct {
	Bucket Bucket `json:"bucket"`
}

type AssertWorktopContains struct {
	ResourceAddress ResourceAddress `json:"resource_address"`
}

type AssertWorktopContainsByAmount struct {
	Amount          Decimal         `json:"amount"`
	ResourceAddress ResourceAddress `json:"resource_address"`
}

type PopFromAuthZone struct {
	IntoProof Proof `json:"into_proof"`
}

type PushToAuthZone struct {
	Proof Proof `json:"proof"`
}

type ClearAuthZone struct{}

type CreateProofFromAuthZone struct {
	ResourceAddress ResourceAddress `json:"resource_address"`
	IntoProof       Proof           `json:"into_proof"`
}

type CreateProofFromBucket struct {
	Bucket    Bucket `json:"bucket"`
	IntoProof Proof  `json:"into_proof"`
}

type DropProof struct {
	Proof Proof `json:"proof"`
}

type DropAllProofs struct{}

type PublishPackage struct {
	Code          Blob     `json:"code"`
	ABI           Blob     `json:"abi"`
	RoyaltyConfig AnyValue `json:"royalty_config"`
	Metadata      AnyValue `json:"metadata"`
	AccessRules   AnyValue `json:"access_rules"`
}

type BurnResource struct {
	Bucket Bucket `json:"bucket"`
}

type MintFungible struct {
	ResourceAddress ResourceAddress `json:"resource_address"`
	Amount          Decimal         `json:"amount"`
}

// SetMetadata targets any global entity; EntityAddress holds a component,
// resource or package address.
type SetMetadata struct {
	EntityAddress AnyValue `json:"entity_address"`
	Key           String   `json:"key"`
	Value         String   `json:"value"`
}

type SetMethodAccessRule struct {
	EntityAddress AnyValue `json:"entity_address"`
	Index         U32      `json:"index"`
	Key           AnyValue `json:"key"`
	Rule          AnyValue `json:"rule"`
}

type SetComponentRoyaltyConfig struct {
	ComponentAddress ComponentAddress `json:"component_address"`
	RoyaltyConfig    AnyValue         `json:"royalty_config"`
}

type ClaimComponentRoyalty struct {
	ComponentAddress ComponentAddress `json:"component_address"`
}

type CreateAccessController struct {
	ControlledAsset       Bucket   `json:"controlled_asset"`
	PrimaryRole           AnyValue `json:"primary_role"`
	RecoveryRole          AnyValue `json:"recovery_role"`
	ConfirmationRole      AnyValue `json:"confirmation_role"`
	TimedRecoveryDelayMin AnyValue `json:"timed_recovery_delay_in_minutes"`
}

func (CallFunction) InstructionKind() InstructionKind                  { return InstructionCallFunction }
func (CallMethod) InstructionKind() InstructionKind                    { return InstructionCallMethod }
func (TakeFromWorktop) InstructionKind() InstructionKind               { return InstructionTakeFromWorktop }
func (TakeFromWorktopByAmount) InstructionKind() InstructionKind       { return InstructionTakeFromWorktopByAmount }
func (ReturnToWorktop) InstructionKind() InstructionKind               { return InstructionReturnToWorktop }
func (AssertWorktopContains) InstructionKind() InstructionKind         { return InstructionAssertWorktopContains }
func (AssertWorktopContainsByAmount) InstructionKind() InstructionKind { return InstructionAssertWorktopContainsByAmount }
func (PopFromAuthZone) InstructionKind() InstructionKind               { return InstructionPopFromAuthZone }
func (PushToAuthZone) InstructionKind() InstructionKind                { return InstructionPushToAuthZone }
func (ClearAuthZone) InstructionKind() InstructionKind                 { return InstructionClearAuthZone }
func (CreateProofFromAuthZone) InstructionKind() InstructionKind       { return InstructionCreateProofFromAuthZone }
func (CreateProofFromBucket) InstructionKind() InstructionKind         { return InstructionCreateProofFromBucket }
func (DropProof) InstructionKind() InstructionKind                     { return InstructionDropProof }
func (DropAllProofs) InstructionKind() InstructionKind                 { return InstructionDropAllProofs }
func (PublishPackage) InstructionKind() InstructionKind                { return InstructionPublishPackage }
func (BurnResource) InstructionKind() InstructionKind                  { return InstructionBurnResource }
func (MintFungible) InstructionKind() InstructionKind                  { return InstructionMintFungible }
func (SetMetadata) InstructionKind() InstructionKind                   { return InstructionSetMetadata }
func (SetMethodAccessRule) InstructionKind() InstructionKind           { return InstructionSetMethodAccessRule }
func (SetComponentRoyaltyConfig) InstructionKind() InstructionKind     { return InstructionSetComponentRoyaltyConfig }
func (ClaimComponentRoyalty) InstructionKind() InstructionKind         { return InstructionClaimComponentRoyalty }
func (CreateAccessController) InstructionKind() InstructionKind        { return InstructionCreateAccessController }

var instructionDecoders = map[InstructionKind]func([]byte) (Instruction, error){
	InstructionCallFunction:                  decodeInstructionAs[CallFunction],
	InstructionCallMethod:                    decodeInstructionAs[CallMethod],
	InstructionTakeFromWorktop:               decodeInstructionAs[TakeFromWorktop],
	InstructionTakeFromWorktopByAmount:       decodeInstructionAs[TakeFromWorktopByAmount],
	InstructionReturnToWorktop:               decodeInstructionAs[ReturnToWorktop],
	InstructionAssertWorktopContains:         decodeInstructionAs[AssertWorktopContains],
	InstructionAssertWorktopContainsByAmount: decodeInstructionAs[AssertWorktopContainsByAmount],
	InstructionPopFromAuthZone:               decodeInstructionAs[PopFromAuthZone],
	InstructionPushToAuthZone:                decodeInstructionAs[PushToAuthZone],
	InstructionClearAuthZone:                 decodeInstructionAs[ClearAuthZone],
	InstructionCreateProofFromAuthZone:       decodeInstructionAs[CreateProofFromAuthZone],
	InstructionCreateProofFromBucket:         decodeInstructionAs[CreateProofFromBucket],
	InstructionDropProof:                     decodeInstructionAs[DropProof],
	InstructionDropAllProofs:                 decodeInstructionAs[DropAllProofs],
	InstructionPublishPackage:                decodeInstructionAs[PublishPackage],
	InstructionBurnResource:                  decodeInstructionAs[BurnResource],
	InstructionMintFungible:                  decodeInstructionAs[MintFungible],
	InstructionSetMetadata:                   decodeInstructionAs[SetMetadata],
	InstructionSetMethodAccessRule:           decodeInstructionAs[SetMethodAccessRule],
	InstructionSetComponentRoyaltyConfig:     decodeInstructionAs[SetComponentRoyaltyConfig],
	InstructionClaimComponentRoyalty:         decodeInstructionAs[ClaimComponentRoyalty],
	InstructionCreateAccessController:        decodeInstructionAs[CreateAccessController],
}

func decodeInstructionAs[T Instruction](data []byte) (Instruction, error) {
	var ins T
	if err := json.Unmarshal(data, &ins); err != nil {
		return nil, err
	}
	return ins, nil
}

// EncodeInstruction renders ins with its "instruction" discriminator first.
func EncodeInstruction(ins Instruction) ([]byte, error) {
	if ins == nil {
		return nil, fmt.Errorf("instruction: nil")
	}
	b, err := encodeTagged(instructionKey, string(ins.InstructionKind()), ins)
	if err != nil {
		return nil, fmt.Errorf("instruction %s: %w", ins.InstructionKind(), err)
	}
	return b, nil
}

// DecodeInstruction reads the "instruction" discriminator and decodes the
// matching instruction.
func DecodeInstruction(data []byte) (Instruction, error) {
	tag, err := readTag(data, instructionKey)
	if err != nil {
		return nil, fmt.Errorf("instruction: %w", err)
	}
	decode, ok := instructionDecoders[InstructionKind(tag)]
	if !ok {
		return nil, fmt.Errorf("instruction: unknown kind %q", tag)
	}
	ins, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("instruction %s: %w", tag, err)
	}
	return ins, nil
}
