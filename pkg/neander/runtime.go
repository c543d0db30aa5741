package neander

// Program preamble: reset vector stub, scratch words, and the 4-byte return
// staging area. %s is the entry symbol. The scratch words are only live
// between the last child of a rule and the end of that rule, so they never
// need saving across calls.
const header = `.org 0
.text
_start:
    CALL %s
    HLT
_t0: .space 4
_t1: .space 4
_t2: .space 2
_op1: .space 4
_op2: .space 4
_ptr: .space 2
_ret4: .space 4
`

// Runtime support for the 16-bit operations the instruction set lacks.
// Calling convention: operands staged in _op1/_op2, result in Y:AC.
// _udivw additionally leaves the remainder in _op1; division by zero
// yields a zero quotient and leaves the dividend as remainder.
const helpers = `_mulw:
    LDI 0
    STA _t0
    STA _t0+1
_mulw_loop:
    LDA _op2
    OR _op2+1
    JZ _mulw_done
    LDA _t0
    ADD _op1
    STA _t0
    LDA _t0+1
    ADC _op1+1
    STA _t0+1
    LDA _op2
    JNZ _mulw_dl
    LDA _op2+1
    DEC
    STA _op2+1
_mulw_dl:
    LDA _op2
    DEC
    STA _op2
    JMP _mulw_loop
_mulw_done:
    LDA _t0+1
    TAY
    LDA _t0
    RET
_udivw:
    LDI 0
    STA _t0
    STA _t0+1
    LDA _op2
    OR _op2+1
    JZ _udivw_done
_udivw_loop:
    LDA _op1
    SUB _op2
    LDA _op1+1
    SBC _op2+1
    JC _udivw_done
    LDA _op1
    SUB _op2
    STA _op1
    LDA _op1+1
    SBC _op2+1
    STA _op1+1
    LDA _t0
    INC
    STA _t0
    JNZ _udivw_loop
    LDA _t0+1
    INC
    STA _t0+1
    JMP _udivw_loop
_udivw_done:
    LDA _t0+1
    TAY
    LDA _t0
    RET
_umodw:
    CALL _udivw
    LDA _op1+1
    TAY
    LDA _op1
    RET
_negop1:
    LDA _op1
    NOT
    STA _op1
    LDA _op1+1
    NOT
    STA _op1+1
    LDA _op1
    INC
    STA _op1
    JNZ _negop1_d
    LDA _op1+1
    INC
    STA _op1+1
_negop1_d:
    RET
_negop2:
    LDA _op2
    NOT
    STA _op2
    LDA _op2+1
    NOT
    STA _op2+1
    LDA _op2
    INC
    STA _op2
    JNZ _negop2_d
    LDA _op2+1
    INC
    STA _op2+1
_negop2_d:
    RET
_sdivw:
    LDA _op1+1
    XOR _op2+1
    STA _t2
    LDA _op1+1
    TAX
    JN _sdivw_n1
    JMP _sdivw_c1
_sdivw_n1:
    CALL _negop1
_sdivw_c1:
    LDA _op2+1
    TAX
    JN _sdivw_n2
    JMP _sdivw_c2
_sdivw_n2:
    CALL _negop2
_sdivw_c2:
    CALL _udivw
    LDA _t2
    TAX
    JN _sdivw_neg
    LDA _t0+1
    TAY
    LDA _t0
    RET
_sdivw_neg:
    LDA _t0
    STA _op1
    LDA _t0+1
    STA _op1+1
    CALL _negop1
    LDA _op1+1
    TAY
    LDA _op1
    RET
_smodw:
    LDA _op1+1
    STA _t2
    LDA _op1+1
    TAX
    JN _smodw_n1
    JMP _smodw_c1
_smodw_n1:
    CALL _negop1
_smodw_c1:
    LDA _op2+1
    TAX
    JN _smodw_n2
    JMP _smodw_c2
_smodw_n2:
    CALL _negop2
_smodw_c2:
    CALL _udivw
    LDA _t2
    TAX
    JN _smodw_neg
    LDA _op1+1
    TAY
    LDA _op1
    RET
_smodw_neg:
    CALL _negop1
    LDA _op1+1
    TAY
    LDA _op1
    RET
_shlw:
_shlw_loop:
    LDA _op2
    JZ _shlw_done
    DEC
    STA _op2
    LDA _op1
    SHL
    STA _op1
    LDA _op1+1
    ROL
    STA _op1+1
    JMP _shlw_loop
_shlw_done:
    LDA _op1+1
    TAY
    LDA _op1
    RET
_shrw:
_shrw_loop:
    LDA _op2
    JZ _shrw_done
    DEC
    STA _op2
    LDA _op1+1
    SHR
    STA _op1+1
    LDA _op1
    ROR
    STA _op1
    JMP _shrw_loop
_shrw_done:
    LDA _op1+1
    TAY
    LDA _op1
    RET
_asrw:
_asrw_loop:
    LDA _op2
    JZ _asrw_done
    DEC
    STA _op2
    LDA _op1+1
    ASR
    STA _op1+1
    LDA _op1
    ROR
    STA _op1
    JMP _asrw_loop
_asrw_done:
    LDA _op1+1
    TAY
    LDA _op1
    RET
`
